package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpHandler "movie-hub/interfaces/http"
	"movie-hub/interfaces/middleware"
)

func InitiateRouter(searchHandler httpHandler.ISearchHandler, secretKey string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "https://localhost:4200"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", searchHandler.Healthz)

	api := router.Group("api")
	api.GET("/search", searchHandler.Search)
	api.GET("/movies/:id", searchHandler.GetDetails)
	api.GET("/stats", searchHandler.Stats)

	admin := router.Group("api/admin")
	admin.Use(middleware.Auth(secretKey))
	admin.POST("/sweep", searchHandler.Sweep)

	return router
}
