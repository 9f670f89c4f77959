package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ppdmloader/internal/config"
	"ppdmloader/internal/logging"
	mcpserver "ppdmloader/internal/mcp"
	"ppdmloader/internal/service"
)

// Version is set at build time with -ldflags "-X ppdmloader/internal/app.Version=...".
var Version = "dev"

const shutdownGrace = 30 * time.Second

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// cli holds what the persistent pre-run loads for every subcommand.
type cli struct {
	cfgFile  string
	logLevel string
	cfg      *config.Config
	logger   *zap.Logger
}

// NewRootCommand builds the ppdmloader command tree.
func NewRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "ppdmloader",
		Short:         "Load Colorado well locations into a PPDM database",
		Long:          color.CyanString(`ppdmloader - reconcile Colorado surface and bottom-hole well locations into PPDM`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default: $HOME/.ppdmloader.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		c.loadCommand(),
		c.scheduleCommand(),
		c.runsCommand(),
		c.schemaCommand(),
		c.previewCommand(),
		c.mcpCommand(),
		c.configCommand(),
	)
	return root
}

func (c *cli) init() error {
	cfg, err := config.Load(c.cfgFile)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger
	if f := cfg.ConfigFileUsed(); f != "" {
		logger.Debug("using config file", zap.String("path", f))
	}
	return nil
}

func (c *cli) open(emitter service.EventEmitter) (*App, error) {
	return New(c.cfg, c.logger, emitter)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// ── load ──────────────────────────────────────────────────

func (c *cli) loadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Run one load now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(nil)
			if err != nil {
				return err
			}
			defer a.Shutdown(shutdownGrace)

			ctx, cancel := signalContext()
			defer cancel()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, color.GreenString("Loading wells into %s %s", c.cfg.Destination.Driver, c.cfg.Destination.Host))
			runLog, err := a.Service().Run(ctx, service.TriggerManual)
			if runLog != nil {
				printRun(out, runLog)
			}
			if err != nil {
				return errors.Wrap(err, "load failed")
			}
			return nil
		},
	}
}

// ── schedule ──────────────────────────────────────────────

func (c *cli) scheduleCommand() *cobra.Command {
	var cronExpr string
	var watch bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run loads on a cron schedule, and on new archives with --watch, until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cronExpr == "" {
				cronExpr = c.cfg.Schedule.Cron
			}
			watch = watch || c.cfg.Watch.Enabled

			a, err := c.open(nil)
			if err != nil {
				return err
			}
			defer a.Shutdown(shutdownGrace)

			ctx, cancel := signalContext()
			defer cancel()

			svc := a.Service()
			if err := svc.StartSchedule(ctx, cronExpr); err != nil {
				return err
			}
			if watch {
				if err := os.MkdirAll(c.cfg.Watch.Dir, 0755); err != nil {
					return errors.Wrap(err, "create watch directory")
				}
				if err := svc.StartWatch(ctx, c.cfg.Watch.Dir); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), color.CyanString("Scheduled %q (watch: %v). Press Ctrl+C to stop.", cronExpr, watch))
			<-ctx.Done()
			fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("Stopping; waiting for a running load to finish"))
			return nil
		},
	}
	cmd.Flags().StringVar(&cronExpr, "cron", "", "cron expression (default: schedule.cron)")
	cmd.Flags().BoolVar(&watch, "watch", false, "also run when an archive changes in watch.dir")
	return cmd
}

// ── runs ──────────────────────────────────────────────────

func (c *cli) runsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent loader runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(nil)
			if err != nil {
				return err
			}
			defer a.Shutdown(shutdownGrace)

			runs, err := a.Service().ListRuns(limit)
			if err != nil {
				return err
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

// ── schema ────────────────────────────────────────────────

func (c *cli) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the well table column lengths the next load will apply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(nil)
			if err != nil {
				return err
			}
			defer a.Shutdown(shutdownGrace)

			ctx, cancel := signalContext()
			defer cancel()

			report, err := a.Service().ResolveSchema(ctx)
			if err != nil {
				return err
			}
			printSchema(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

// ── preview ───────────────────────────────────────────────

func (c *cli) previewCommand() *cobra.Command {
	var rows int
	cmd := &cobra.Command{
		Use:       "preview [surface|bottom_hole]",
		Short:     "Print the first rows of a dataset without loading it",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"surface", "bottom_hole"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(nil)
			if err != nil {
				return err
			}
			defer a.Shutdown(shutdownGrace)

			ctx, cancel := signalContext()
			defer cancel()

			preview, err := a.Service().Preview(ctx, args[0], rows)
			if err != nil {
				return err
			}
			printPreview(cmd.OutOrStdout(), preview)
			return nil
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", 10, "number of rows")
	return cmd
}

// ── mcp ───────────────────────────────────────────────────

func (c *cli) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve loader tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			notifier := &mcpserver.Notifier{}
			a, err := c.open(notifier)
			if err != nil {
				return err
			}
			defer a.Shutdown(shutdownGrace)

			srv := mcpserver.New(mcpserver.Deps{
				Loader:   a.Service(),
				Notifier: notifier,
				Version:  Version,
				Logger:   c.logger,
			})
			if err := srv.ServeStdio(); err != nil {
				return errors.Wrap(err, "mcp server")
			}
			return nil
		},
	}
}

// ── config ────────────────────────────────────────────────

func (c *cli) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if f := c.cfg.ConfigFileUsed(); f != "" {
				fmt.Fprintf(out, "# %s\n", f)
			}
			return c.cfg.Dump(out)
		},
	})
	return cmd
}
