package main

import (
	"net/http"
	"os"

	"github.com/custodia-labs/o365-cli/internal/adapters/driven/auth"
	"github.com/custodia-labs/o365-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/o365-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft/graph"
	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft/sharepoint"
	"github.com/custodia-labs/o365-cli/internal/core/services"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)
	defer logger.Sync()

	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}

// bootstrap wires services once the --config flag is known.
func bootstrap(configPath string) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := configStore.Load()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout()}

	// Create token provider for all Microsoft 365 resources
	tokens, err := auth.NewTokenProvider(cfg.Auth, httpClient)
	if err != nil {
		return nil, err
	}

	limits := microsoft.RateLimitConfig{
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		BurstSize:         cfg.HTTP.Burst,
	}

	// SharePoint: one poller per removal, sharing a rate limiter
	spoLimiter := microsoft.NewRateLimiterWithConfig(microsoft.ServiceSharePoint, limits)
	pollers := sharepoint.NewPollerFactory(tokens, httpClient, spoLimiter, sharepoint.WithProgress(cli.Progress))
	siteRemovalSvc := services.NewSiteRemovalService(pollers, cfg.SPO.AdminURL)

	// Graph
	graphLimiter := microsoft.NewRateLimiterWithConfig(microsoft.ServiceGraph, limits)
	graphAPI := microsoft.NewClient(microsoft.GraphResource, tokens, graphLimiter, httpClient)
	classificationSvc := services.NewClassificationService(graph.NewSettingsClient(cfg.Graph.BaseURL, graphAPI))

	return &cli.Services{
		SiteRemoval:    siteRemovalSvc,
		Classification: classificationSvc,
		Config:         configStore,
	}, nil
}
