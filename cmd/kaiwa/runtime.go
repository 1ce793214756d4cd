package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/spf13/viper"

	"github.com/hrygo/kaiwa/ai/analytics"
	"github.com/hrygo/kaiwa/ai/cache"
	"github.com/hrygo/kaiwa/ai/core/llm"
	"github.com/hrygo/kaiwa/ai/match"
	"github.com/hrygo/kaiwa/ai/observability/metrics"
	"github.com/hrygo/kaiwa/internal/profile"
	"github.com/hrygo/kaiwa/internal/version"
	"github.com/hrygo/kaiwa/store"
	"github.com/hrygo/kaiwa/store/db"
)

// runtime bundles the wired cache subsystem for the CLI commands.
type runtime struct {
	profile      *profile.Profile
	store        *store.Store
	orchestrator *cache.Orchestrator
	aggregator   *analytics.Aggregator
	exporter     *metrics.Exporter
	generator    llm.Service
}

// loadProfile assembles the instance profile from flags and env.
func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:   viper.GetString("mode"),
		Data:   viper.GetString("data"),
		Driver: viper.GetString("driver"),
		DSN:    viper.GetString("dsn"),
	}
	instanceProfile.FromEnv()
	if addr := viper.GetString("metrics-addr"); addr != "" {
		instanceProfile.MetricsAddr = addr
	}
	instanceProfile.Version = version.GetCurrentVersion(instanceProfile.Mode)
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

// openStore opens and migrates the store for commands that only need
// persistence, no matching or generation.
func openStore(ctx context.Context, instanceProfile *profile.Profile) (*store.Store, error) {
	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, err
	}
	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		_ = storeInstance.Close()
		return nil, err
	}
	return storeInstance, nil
}

// newRuntime wires the full request path: store, matcher, generator,
// analytics, metrics, orchestrator.
func newRuntime(ctx context.Context, adaptiveThreshold bool) (*runtime, error) {
	instanceProfile, err := loadProfile()
	if err != nil {
		return nil, err
	}

	storeInstance, err := openStore(ctx, instanceProfile)
	if err != nil {
		return nil, err
	}

	matchConfig := match.DefaultConfig()
	matchConfig.CandidateLimit = instanceProfile.CandidateLimit
	engine := match.NewEngine(storeInstance, matchConfig, slog.Default())

	var generator llm.Service
	if instanceProfile.IsLLMEnabled() {
		generator, err = llm.NewService(&llm.Config{
			Provider: instanceProfile.LLMProvider,
			Model:    instanceProfile.LLMModel,
			APIKey:   instanceProfile.LLMAPIKey,
			BaseURL:  instanceProfile.LLMBaseURL,
			Timeout:  instanceProfile.LLMTimeout,
		})
		if err != nil {
			_ = storeInstance.Close()
			return nil, err
		}
	} else {
		slog.Warn("no LLM provider configured, cache misses will fail")
		generator = llm.NewDisabled()
	}

	aggregator := analytics.New(storeInstance, analytics.Config{
		CostPerKTokensUSD: instanceProfile.CostPerKTokensUSD,
	}, slog.Default())

	var exporter *metrics.Exporter
	if instanceProfile.MetricsAddr != "" {
		exporter = metrics.NewExporter(metrics.DefaultConfig())
		go serveMetrics(instanceProfile.MetricsAddr, exporter)
	}

	orchestrator := cache.New(
		engine,
		storeInstance,
		generator,
		aggregator,
		nil,
		exporter,
		cache.Config{
			DefaultThreshold:  instanceProfile.MatchThreshold,
			AdaptiveThreshold: adaptiveThreshold,
		},
		slog.Default(),
	)

	return &runtime{
		profile:      instanceProfile,
		store:        storeInstance,
		orchestrator: orchestrator,
		aggregator:   aggregator,
		exporter:     exporter,
		generator:    generator,
	}, nil
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
}

func serveMetrics(addr string, exporter *metrics.Exporter) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", exporter.Handler())
	slog.Info("metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics endpoint failed", "error", err)
	}
}
