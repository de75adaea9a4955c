package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agentcrew/internal/config"
	"agentcrew/internal/crew"
	"agentcrew/internal/dispatch"
	"agentcrew/internal/logging"
	"agentcrew/internal/messaging/inproc"
	"agentcrew/internal/metrics"
	"agentcrew/internal/output"
	"agentcrew/internal/persona"
	"agentcrew/internal/store/memory"
	sqlitestore "agentcrew/internal/store/sqlite"
	"agentcrew/internal/tracker"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	dbPath     string
	outputFmt  string
	strict     bool
	verbose    bool

	cfg        config.Config
	logger     *zap.Logger
	store      tracker.Store
	closeStore func() error
	events     *inproc.Bus
	crew       *crew.Crew
	reporter   *metrics.Reporter
	printer    *output.Printer
}

// run executes one invocation. The store is closed even when the command
// fails.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root, a := newRootCmd(stdin, stdout, stderr)
	defer a.teardown()
	root.SetArgs(args)
	return root.Execute()
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) (*cobra.Command, *app) {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "agentcrew <persona-id> <command> [args...]",
		Short: "Simulated engineering team personas",
		Long: `agentcrew runs one command against one persona of a simulated engineering team.

Every persona understands status, task, complete, improve, metrics, monitor and
report; some add design, security, k8s or performance.

Examples:
  agentcrew senior-backend-1 task Fix bug in payment service
  agentcrew senior-backend-1 complete 1767601800000 patched
  agentcrew engineering-manager report`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			a.teardown()
		},
		// Personas that only exist in the personas file have no subcommand
		// of their own and land here.
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.runPersona(cmd.Context(), args[0], args[1:])
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.Flags().SetInterspersed(false)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to config.toml (default: ~/.agentcrew/config.toml)")
	flags.StringVar(&a.dbPath, "db", "", "sqlite database path; switches the store to sqlite")
	flags.StringVarP(&a.outputFmt, "output", "o", "", "output format: json or yaml")
	flags.BoolVar(&a.strict, "strict", false, "exit non-zero when a command prints usage or a business error")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	builtin, err := persona.Builtin()
	if err == nil {
		for _, p := range builtin.All() {
			root.AddCommand(newPersonaCmd(a, p))
		}
	}
	root.AddCommand(newPersonasCmd(a), newServeCmd(a), newDashboardCmd(a))
	return root, a
}

func newPersonaCmd(a *app, p persona.Persona) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   p.ID + " <command> [args...]",
		Short:                 p.Role,
		Long:                  fmt.Sprintf("%s (phase %d)\n\nCommands: %v", p.Role, p.Phase, p.Commands()),
		Args:                  cobra.ArbitraryArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPersona(cmd.Context(), p.ID, args)
		},
	}
	// Everything after the command word belongs to the persona.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newPersonasCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List personas with their task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summaries, err := a.crew.Summaries(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Print(a.stdout, summaries)
		},
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Store.Driver = config.DriverSQLite
		cfg.Store.Path = a.dbPath
	}
	if flags.Changed("output") {
		cfg.Output = a.outputFmt
	}
	if flags.Changed("strict") {
		cfg.StrictExit = a.strict
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logOut := a.stderr
	if cmd.Name() == "dashboard" {
		// The dashboard owns the terminal.
		logOut = io.Discard
	}
	logger, err := logging.New(cfg.LogLevel, logOut)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	a.logger = logger.With(zap.String("run_id", uuid.NewString()))

	if a.printer, err = output.NewPrinter(cfg.Output); err != nil {
		return err
	}
	reg, err := persona.Load(cfg.PersonasFile)
	if err != nil {
		return err
	}
	if a.store, a.closeStore, err = openStore(cmd.Context(), cfg.Store); err != nil {
		return err
	}
	a.events = inproc.New(256)
	a.crew, err = crew.New(reg, a.store, crew.Options{Logger: a.logger, Events: a.events})
	if err != nil {
		return err
	}
	a.reporter = metrics.NewReporter(metrics.NewSimulator(cfg.Metrics.Seed), nil)

	a.logger.Debug("agentcrew ready",
		zap.String("command", cmd.Name()),
		zap.String("config", cfg.Path),
		zap.String("store", cfg.Store.Driver),
		zap.Int("personas", len(reg.IDs())),
	)
	return nil
}

func (a *app) teardown() {
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			a.logger.Warn("close store", zap.Error(err))
		}
		a.closeStore = nil
	}
	_ = a.logger.Sync()
}

func (a *app) runPersona(ctx context.Context, personaID string, args []string) error {
	return a.dispatch(ctx, personaID, args, a.stdout, a.stderr, a.cfg.StrictExit)
}

func (a *app) dispatch(ctx context.Context, personaID string, args []string, out, errOut io.Writer, strict bool) error {
	p, err := a.crew.Persona(personaID)
	if err != nil {
		return err
	}
	tr, err := a.crew.Tracker(ctx, p.ID)
	if err != nil {
		return err
	}
	d := &dispatch.Dispatcher{
		Persona:  p,
		Tracker:  tr,
		Reporter: a.reporter,
		Printer:  a.printer,
		Out:      out,
		Err:      errOut,
		Program:  "agentcrew " + p.ID,
		Strict:   strict,
	}
	return d.Run(ctx, args)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (tracker.Store, func() error, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlitestore.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return store, store.Close, nil
	default:
		store := memory.New()
		return store, store.Close, nil
	}
}
