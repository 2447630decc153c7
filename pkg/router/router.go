package router

import (
	"github.com/gin-gonic/gin"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/router/middleware"
)

var groupRegisters []GroupRegister

// GroupRegister adds one module's routes to the shared /v1 group
type GroupRegister func(group *gin.RouterGroup) error

func RegisterGroup(group GroupRegister) {
	groupRegisters = append(groupRegisters, group)
}

func InitRouter(engine *gin.Engine, cfg *config.Config) error {
	g := engine.Group("/v1")
	g.Use(middleware.HandleMetrics())
	g.Use(middleware.HandleLogging())
	g.Use(middleware.HandleErrors())
	g.Use(middleware.CorsMiddleware())

	for _, group := range groupRegisters {
		if err := group(g); err != nil {
			return err
		}
	}
	return nil
}
