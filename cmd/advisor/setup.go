package main

import (
	"fmt"
	"os"
	"strings"

	"advisor/internal/aggregate"
	"advisor/internal/config"
	"advisor/internal/coordinator"
	"advisor/internal/history"
	"advisor/internal/worker"
	"advisor/pkg/models"
)

// buildCoordinator assembles the coordinator from configuration: persona
// workers, the history backend, the orchestration rules, and the debug
// logger. The returned cleanup closes everything the build opened.
func buildCoordinator(cfg *config.Config) (*coordinator.Coordinator, func(), error) {
	registry := worker.NewRegistry()

	if len(cfg.Workers) > 0 {
		apiKey, err := config.GetAPIKey(cfg)
		if err != nil && !cfg.Anthropic.UseAWSBedrock {
			return nil, nil, fmt.Errorf("personas are configured but %w", err)
		}
		client, err := worker.NewClient(worker.ClientConfig{
			Model:         cfg.Anthropic.Model,
			APIKey:        apiKey,
			UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create API client: %w", err)
		}

		for _, persona := range cfg.Workers {
			w, err := worker.NewPersonaWorker(persona, client)
			if err != nil {
				return nil, nil, fmt.Errorf("configure persona: %w", err)
			}
			if err := registry.Register(w); err != nil {
				return nil, nil, fmt.Errorf("register persona: %w", err)
			}
		}
	}

	store, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	logger, err := coordinator.NewDebugLogger(cfg.Logging.DebugLog)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("open debug log: %w", err)
	}

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		// A broken rules file is non-fatal; the defaults keep routing alive.
		fmt.Fprintf(os.Stderr, "Warning: %v (using built-in rules)\n", err)
		logger.Log("rules load failed, using defaults: %v", err)
	}

	c := coordinator.New(registry,
		coordinator.WithHistory(store),
		coordinator.WithRules(rules),
		coordinator.WithLogger(logger),
		coordinator.WithRequestDeadline(cfg.Coordination.RequestDeadline),
		coordinator.WithAggregator(aggregate.New(
			aggregate.WithMaxParallel(cfg.Coordination.MaxParallelSecondaries),
			aggregate.WithSecondaryTimeout(cfg.Coordination.SecondaryTimeout),
			aggregate.WithInsightDelimiter(cfg.Coordination.InsightDelimiter),
			aggregate.WithLogger(logger.Log),
		)),
	)

	cleanup := func() { c.Close() }

	if cfg.RulesFile != "" {
		watcher, err := config.WatchRules(cfg.RulesFile,
			c.Dispatcher().SetRules,
			func(err error) { logger.Log("rules reload failed: %v", err) },
		)
		if err != nil {
			logger.Log("rules watcher unavailable: %v", err)
		} else {
			cleanup = func() {
				watcher.Close()
				c.Close()
			}
		}
	}

	return c, cleanup, nil
}

// buildStore selects the configured history backend.
func buildStore(cfg *config.Config) (history.Store, error) {
	switch cfg.History.Backend {
	case "", "memory":
		return history.NewMemoryStore(cfg.History.Capacity), nil
	case "sqlite":
		dbPath := cfg.History.DBPath
		if dbPath == "" {
			dbPath = history.DefaultDBPath()
		}
		store, err := history.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open history database: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}

// parseContextArgs turns repeated key=value flags into a request context.
func parseContextArgs(pairs []string) (models.Context, error) {
	reqCtx := models.Context{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid context entry %q, expected key=value", pair)
		}
		reqCtx[key] = value
	}
	return reqCtx, nil
}
