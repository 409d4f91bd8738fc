// Package cmd provides CLI commands for the ledger tool.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taneryldrm/bugless-crm-sub000/internal/backend"
	"github.com/taneryldrm/bugless-crm-sub000/internal/cli"
	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
	"github.com/taneryldrm/bugless-crm-sub000/internal/log"
	"github.com/taneryldrm/bugless-crm-sub000/internal/services"
)

var (
	envFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Company ledger reconciliation",
	Long: `ledger reads the company transaction store and reconciles it:

- monthly ledgers with carried-forward balances
- client balances attributed by project or payer name
- per-payer debts for out-of-pocket expenses and their settlement
- bank commissions derived for wire transfer expenses

Example:
  ledger report --month 2025-02
  ledger balances
  ledger settle ali`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := cli.SignalContext()
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load (default is .env when present)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(balancesCmd)
	rootCmd.AddCommand(debtsCmd)
	rootCmd.AddCommand(settleCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(collectCmd)
}

// app holds what every command needs once configuration is loaded.
type app struct {
	logger      *log.Logger
	backend     *backend.BackendResult
	engine      *services.Engine
	ledger      *services.LedgerService
	settlement  *services.SettlementService
	collections *services.CollectionService
}

func setup(ctx context.Context) (*app, error) {
	if err := cli.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	logger := cli.SetupLogger(cfg)

	res, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("init backend: %w", err)
	}
	logger.DebugContext(ctx, "Backend ready",
		log.FieldOperation, log.OpStartup,
		"data", cfg.DataBackend,
		"events", cfg.EventsBackend)

	return &app{
		logger:      logger,
		backend:     res,
		engine:      services.NewEngine(res.Store, nil, logger),
		ledger:      services.NewLedgerService(res.Store, res.Publisher, res.Fees, logger),
		settlement:  services.NewSettlementService(res.Store, res.Publisher, nil, logger),
		collections: services.NewCollectionService(res.Store, res.Publisher, nil, logger),
	}, nil
}

func (a *app) close() {
	if err := a.backend.Cleanup(); err != nil {
		a.logger.Warn("Cleanup failed", log.FieldOperation, log.OpShutdown, log.FieldError, err)
	}
}

// failureFields describes a failed command for the log. Store command
// errors also carry the operation, intent and transaction they were about.
func failureFields(err error) log.LogFields {
	fields := log.NewFields().WithError(err)
	var cmdErr *core.StoreCommandError
	if errors.As(err, &cmdErr) {
		fields.WithOperation(cmdErr.Op).
			WithIntent(string(cmdErr.Intent)).
			WithTransaction(cmdErr.TransactionID)
	}
	return fields
}

// withApp wraps a command body with setup and cleanup.
func withApp(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return err
		}
		defer a.close()
		if err := run(cmd, args, a); err != nil {
			a.logger.ErrorContext(cmd.Context(), "Command failed", failureFields(err).ToSlice()...)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return err
		}
		return nil
	}
}
