package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	"github.com/davidbz/chatstream/internal/config"
	"github.com/davidbz/chatstream/internal/conversation"
	"github.com/davidbz/chatstream/internal/domain"
	"github.com/davidbz/chatstream/internal/export"
	"github.com/davidbz/chatstream/internal/http"
	"github.com/davidbz/chatstream/internal/http/middleware"
	"github.com/davidbz/chatstream/internal/observability"
	"github.com/davidbz/chatstream/internal/provider/echo"
	"github.com/davidbz/chatstream/internal/provider/openai"
	"github.com/davidbz/chatstream/internal/provider/registry"
	"github.com/davidbz/chatstream/internal/routing"
	"github.com/davidbz/chatstream/internal/telemetry"
)

const echoCredential = "echo"

// upstreams owns the registry and anything started to back it.
type upstreams struct {
	registry *registry.Registry
	closers  []func(context.Context) error
}

func (u *upstreams) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range u.closers {
		errs = append(errs, closeFn(ctx))
	}
	return errors.Join(errs...)
}

func buildContainer() (*dig.Container, error) {
	container := dig.New()

	providers := []struct {
		name        string
		constructor any
	}{
		// Configuration
		{"config", config.Load},
		{"config dependencies", config.ParseDependenciesConfig},

		// Observability
		{"logger", observability.InitLogger},
		{"metrics registry", newMetricsRegistry},
		{"metrics gatherer", func(reg *prometheus.Registry) prometheus.Gatherer { return reg }},
		{"exchange recorder", func(reg *prometheus.Registry) (domain.ExchangeRecorder, error) {
			return telemetry.NewRecorder(reg)
		}},

		// Pricing
		{"pricing registry", newPricingRegistry},
		{"cost calculator", func(reg domain.PricingRegistry) domain.CostCalculator {
			return domain.NewStandardCostCalculator(reg)
		}},

		// Completion client
		{"upstreams", newUpstreams},
		{"upstream registry", func(u *upstreams) domain.UpstreamRegistry { return u.registry }},
		{"upstream router", func(reg domain.UpstreamRegistry) domain.UpstreamRouter { return routing.NewRouter(reg) }},
		{"completion client", func(cfg *openai.Config, calc domain.CostCalculator) domain.CompletionClient {
			return openai.NewClient(*cfg, calc)
		}},

		// Domain services
		{"conversation service", newConversationService},
		{"exporter", func() *export.Exporter { return export.New(nil, nil) }},

		// HTTP layer
		{"middleware", middleware.BuildMiddlewareChain},
		{"HTTP handler", http.NewHandler},
		{"HTTP server", http.NewServer},
	}

	for _, p := range providers {
		if err := container.Provide(p.constructor); err != nil {
			return nil, fmt.Errorf("failed to provide %s: %w", p.name, err)
		}
	}

	return container, nil
}

func newMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newPricingRegistry() (domain.PricingRegistry, error) {
	ctx := context.Background()
	reg := domain.NewInMemoryPricingRegistry()

	if err := openai.RegisterPricing(ctx, reg); err != nil {
		return nil, err
	}
	if err := echo.RegisterPricing(ctx, reg); err != nil {
		return nil, err
	}

	return reg, nil
}

// newUpstreams registers the configured endpoint as the catch-all and, when
// enabled, starts the echo upstream for its model.
func newUpstreams(cfg *openai.Config, echoCfg *config.EchoConfig) (*upstreams, error) {
	ctx := context.Background()
	u := &upstreams{registry: registry.NewRegistry()}

	if err := u.registry.Register(ctx, &domain.Upstream{
		Name:       "openai",
		BaseURL:    cfg.BaseURL,
		Credential: cfg.APIKey,
	}); err != nil {
		return nil, err
	}

	if !echoCfg.Enabled {
		return u, nil
	}

	listener, err := echo.NewServer().Listen("127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	u.closers = append(u.closers, listener.Close)

	if err = u.registry.Register(ctx, &domain.Upstream{
		Name:       "echo",
		BaseURL:    listener.BaseURL,
		Credential: echoCredential,
		Models:     []string{echo.ModelName},
	}); err != nil {
		return nil, errors.Join(err, listener.Close(ctx))
	}

	return u, nil
}

func newConversationService(
	client domain.CompletionClient,
	router domain.UpstreamRouter,
	recorder domain.ExchangeRecorder,
	cfg *openai.Config,
) *conversation.Service {
	return conversation.NewService(client, router, recorder, conversation.Config{
		Timeout: time.Duration(cfg.Timeout) * time.Second,
		Limits:  cfg.ValidationLimits(),
	})
}
