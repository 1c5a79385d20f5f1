package moviedb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"movie-hub/domain/model"
	"movie-hub/infrastructure/clients/moviedb"
)

func newTestClient(baseURL string, ratePerMinute int) *moviedb.Client {
	return moviedb.NewClient(&moviedb.Config{
		BaseURL:       baseURL,
		APIKey:        "test-key",
		Timeout:       2 * time.Second,
		RatePerMinute: ratePerMinute,
	}).(*moviedb.Client)
}

func TestClient_SearchNormalizesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "the matrix", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"id":603,"title":"The Matrix","release_date":"1999-03-31","poster_path":"/matrix.jpg","vote_average":8.7,"overview":"A hacker wakes up."},
			{"id":604,"title":"The Matrix Reloaded","release_date":"2003-05-15"}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 40)
	movies, err := client.Search(context.Background(), "the matrix", 10)

	assert.NoError(t, err)
	assert.Len(t, movies, 2)
	assert.Equal(t, "603", movies[0].ID)
	assert.Equal(t, "The Matrix", movies[0].Title)
	assert.Equal(t, 1999, movies[0].Year)
	assert.InDelta(t, 8.7, movies[0].Rating, 0.001)
	assert.Equal(t, "moviedb", movies[0].Source)
	assert.Equal(t, 2003, movies[1].Year)
}

func TestClient_SearchTruncatesToLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"id":1,"title":"A"},{"id":2,"title":"B"},{"id":3,"title":"C"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 40)
	movies, err := client.Search(context.Background(), "anything", 2)

	assert.NoError(t, err)
	assert.Len(t, movies, 2)
}

func TestClient_SearchEmptyQuery(t *testing.T) {
	client := newTestClient("http://localhost:1", 40)
	movies, err := client.Search(context.Background(), "   ", 10)

	assert.NoError(t, err)
	assert.Nil(t, movies)
}

func TestClient_SearchRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 1)
	_, err := client.Search(context.Background(), "first", 10)
	assert.NoError(t, err)

	_, err = client.Search(context.Background(), "second", 10)
	assert.Error(t, err)
	assert.Equal(t, model.ErrKindRateLimited, model.KindOf(err))
}

func TestClient_SearchUpstream429(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 40)
	_, err := client.Search(context.Background(), "dune", 10)

	assert.Error(t, err)
	assert.Equal(t, model.ErrKindRateLimited, model.KindOf(err))
}

func TestClient_SearchUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 40)
	_, err := client.Search(context.Background(), "dune", 10)

	assert.Error(t, err)
	assert.Equal(t, model.ErrKindConnectivity, model.KindOf(err))
}

func TestClient_SearchUndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>definitely not json</html>`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 40)
	_, err := client.Search(context.Background(), "dune", 10)

	assert.Error(t, err)
	assert.Equal(t, model.ErrKindParse, model.KindOf(err))
}

func TestClient_GetByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603", r.URL.Path)
		w.Write([]byte(`{"id":603,"title":"The Matrix","release_date":"1999-03-31"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 40)
	movie, err := client.GetByID(context.Background(), "603")

	assert.NoError(t, err)
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Equal(t, 1999, movie.Year)
}

func TestClient_GetByID_NotFoundBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 40)
	movie, err := client.GetByID(context.Background(), "999999")

	assert.NoError(t, err)
	assert.Nil(t, movie)

	movie, err = client.GetByID(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, movie)
}

func TestClient_Ping(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/configuration", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	client := newTestClient(healthy.URL, 40)
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	client = newTestClient(broken.URL, 40)
	assert.Error(t, client.Ping(context.Background()))
}
