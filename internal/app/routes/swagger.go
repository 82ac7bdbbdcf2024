package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yigit/uniforum/docs"
)

// SetupSwagger serves the API description at /swagger. host, when set,
// replaces the documented host so "try it out" targets this deployment.
func SetupSwagger(router *gin.Engine, host string) {
	docs.SwaggerInfo.BasePath = APIBasePath
	if host != "" {
		docs.SwaggerInfo.Host = host
	}
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.URL("/swagger/doc.json"),
		ginSwagger.DefaultModelsExpandDepth(1),
	))
}
