package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"movie-hub/domain/dto"
	"movie-hub/usecase"
)

type ISearchHandler interface {
	Search(c *gin.Context)
	GetDetails(c *gin.Context)
	Stats(c *gin.Context)
	Healthz(c *gin.Context)
	Sweep(c *gin.Context)
}

type SearchHandler struct {
	SearchUsecase usecase.ISearchUsecase
}

func NewSearchHandler(searchUsecase usecase.ISearchUsecase) ISearchHandler {
	return &SearchHandler{SearchUsecase: searchUsecase}
}

// Search resolves a movie query through the layered pipeline. The
// response shape is identical for hits, misses and degraded backends.
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: "q parameter is required"})
		return
	}

	searchCtx := map[string]string{
		"origin":     c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	}
	res := h.SearchUsecase.Search(c.Request.Context(), req.Q, req.Limit, searchCtx)
	c.JSON(http.StatusOK, res)
}

func (h *SearchHandler) GetDetails(c *gin.Context) {
	id := c.Param("id")
	movie, ok := h.SearchUsecase.GetMovieDetails(c.Request.Context(), id)
	if !ok {
		c.JSON(http.StatusNotFound, dto.Res{ResponseCode: "404", ResponseMessage: "movie not found"})
		return
	}
	c.JSON(http.StatusOK, movie)
}

func (h *SearchHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.SearchUsecase.Stats())
}

// Healthz reports per-layer health; a degraded backend still answers 200
// so load balancers keep routing while operators see the detail.
func (h *SearchHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, h.SearchUsecase.HealthCheck(c.Request.Context()))
}

func (h *SearchHandler) Sweep(c *gin.Context) {
	memoryRemoved, persistentRemoved := h.SearchUsecase.Sweep(c.Request.Context())
	c.JSON(http.StatusOK, dto.SweepResponse{
		MemoryRemoved:     memoryRemoved,
		PersistentRemoved: persistentRemoved,
	})
}
