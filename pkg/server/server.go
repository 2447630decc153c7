package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/perflens/bottleneck-analyzer/pkg/config"
	"github.com/perflens/bottleneck-analyzer/pkg/database"
	"github.com/perflens/bottleneck-analyzer/pkg/errors"
	"github.com/perflens/bottleneck-analyzer/pkg/logger/log"
	"github.com/perflens/bottleneck-analyzer/pkg/router"
	"github.com/perflens/bottleneck-analyzer/pkg/sql"
)

func InitServer(ctx context.Context) error {
	return InitServerWithPreInitFunc(ctx, nil)
}

// InitServerWithPreInitFunc loads configuration, connects the baseline
// store, runs the module preInit hook and starts the HTTP server. An
// unreachable or unmigratable store is fatal; everything downstream
// degrades instead.
func InitServerWithPreInitFunc(ctx context.Context, preInit func(ctx context.Context, cfg *config.Config) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log.SetLevel(cfg.LogLevel)

	if _, err := sql.InitDefault(cfg.Database); err != nil {
		return errors.NewError().WithCode(errors.CodeDatabaseError).
			WithMessage("failed to connect baseline store").WithError(err)
	}
	if err := database.AutoMigrate(); err != nil {
		return err
	}

	if preInit != nil {
		if err := preInit(ctx, cfg); err != nil {
			return errors.NewError().WithCode(errors.CodeInitializeError).
				WithMessage("PreInit Error").WithError(err)
		}
	}

	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())
	if err := router.InitRouter(ginEngine, cfg); err != nil {
		return err
	}

	port := cfg.HttpPort
	if port == 0 {
		port = 8080
	}
	InitHealthServer(port + 1)

	return ginEngine.Run(fmt.Sprintf(":%d", port))
}
