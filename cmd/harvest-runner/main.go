// Harvest Runner — выполняет один job в процессе и печатает отчёт.
//
// Не требует БД и RabbitMQ. Коды выхода:
//
//	0 — все items выполнены
//	1 — хотя бы один item FAILED или ошибка запуска
//	2 — сессия не авторизована
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/Harvest/internal/config"
	"github.com/shaiso/Harvest/internal/orchestrator"
	"github.com/shaiso/Harvest/internal/telemetry"
)

const exitUnauthenticated = 2

func main() {
	var configPath string
	var bundle string

	rootCmd := &cobra.Command{
		Use:           "harvest-runner ITEM...",
		Short:         "Run one job locally and print its report",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, bundle, args)
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default: $HARVEST_CONFIG)")
	rootCmd.Flags().StringVar(&bundle, "bundle", "", "Write all exports to this zip file after the job")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, orchestrator.ErrAuthenticationFailed) {
			os.Exit(exitUnauthenticated)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, bundle string, items []string) error {
	logger := telemetry.SetupLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	orch, store, err := orchestrator.FromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}

	rep, runErr := orch.Run(ctx, items)
	if rep != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	if bundle != "" {
		f, err := os.Create(bundle)
		if err != nil {
			return fmt.Errorf("create bundle: %w", err)
		}
		err = store.ExportArchive(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(bundle)
			return fmt.Errorf("write bundle: %w", err)
		}
		logger.Info("exports bundled", "path", bundle)
	}

	if !rep.Success() {
		return fmt.Errorf("%d of %d items failed", rep.TotalFailed(), len(rep.Results))
	}
	return nil
}
