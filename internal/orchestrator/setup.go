package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Harvest/internal/artifact"
	"github.com/shaiso/Harvest/internal/capability/httpdriver"
	"github.com/shaiso/Harvest/internal/config"
	"github.com/shaiso/Harvest/internal/engine"
)

// FromConfig собирает Orchestrator с HTTP-драйвером и хранилищем артефактов.
// Если MinIO сконфигурирован, exports дублируются в bucket.
func FromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Orchestrator, *artifact.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var mirror artifact.Mirror
	if cfg.MinIO.Enabled() {
		m, err := artifact.NewMinIOMirror(ctx, cfg.MinIO)
		if err != nil {
			return nil, nil, fmt.Errorf("minio mirror: %w", err)
		}
		logger.Info("export mirror enabled", "endpoint", cfg.MinIO.Endpoint, "bucket", cfg.MinIO.Bucket)
		mirror = m
	}

	store, err := artifact.NewStore(artifact.Config{
		Root:   cfg.ArtifactDir,
		Mirror: mirror,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, err
	}

	driver := httpdriver.New(httpdriver.Config{
		BaseURL:           cfg.BaseURL,
		DashboardURL:      cfg.DashboardURL,
		SignInMarker:      cfg.SignInMarker,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
	})

	machine := engine.NewMachine(engine.Config{
		Target: cfg.Target,
		Policy: cfg.Retry,
		Store:  store,
		Logger: logger,
	})

	orch := New(Config{
		Driver:       driver,
		Machine:      machine,
		Session:      cfg.SessionConfig(),
		DownloadRoot: cfg.DownloadDir,
		Logger:       logger,
	})
	return orch, store, nil
}
