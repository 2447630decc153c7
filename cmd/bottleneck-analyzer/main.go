package main

import (
	"context"

	"github.com/perflens/bottleneck-analyzer/pkg/common/bootstrap"
	"github.com/perflens/bottleneck-analyzer/pkg/logger/log"
)

func main() {
	if err := bootstrap.Bootstrap(context.Background()); err != nil {
		log.Fatalf("Failed to bootstrap bottleneck analyzer: %v", err)
	}
}
