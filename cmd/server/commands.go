package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/wordclaim/internal/config"
	"github.com/phrazzld/wordclaim/internal/loader"
	"github.com/phrazzld/wordclaim/internal/platform/logger"
	"github.com/phrazzld/wordclaim/internal/platform/postgres"
	"github.com/phrazzld/wordclaim/internal/reclaim"
	"github.com/phrazzld/wordclaim/internal/service/assignment"
	"github.com/phrazzld/wordclaim/internal/service/auth"
	"github.com/spf13/cobra"
)

// newRootCommand builds the wordclaim command tree. Without a subcommand it
// runs the server.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "wordclaim",
		Short: "Word pool server: claim a word, photograph it, verify it",
		Long: `wordclaim hands out words from a fixed pool, one per participant,
verifies photographed words with OCR and returns stale claims to the pool.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runServe,
	}

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newLoadCommand(),
		newCountCommand(),
		newPeekCommand(),
		newResetCommand(),
		newReclaimCommand(),
		newAdminTokenCommand(),
	)
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations, populate the pool and serve HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return printError(cmd.ErrOrStderr(), "Failed to load configuration", err)
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return printError(cmd.ErrOrStderr(), "Failed to set up logger", err)
	}
	log.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("ocr_provider", cfg.OCR.Provider))

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return printError(cmd.ErrOrStderr(), "Failed to connect to database", err)
	}
	if err := runMigrations(db, "up", log); err != nil {
		_ = db.Close()
		return printError(cmd.ErrOrStderr(), "Failed to apply migrations", err)
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		_ = db.Close()
		return printError(cmd.ErrOrStderr(), "Failed to initialize application", err)
	}
	if err := app.Run(ctx); err != nil {
		return printError(cmd.ErrOrStderr(), "Server stopped with an error", err)
	}
	return nil
}

// cliEnv is the configuration, logger and database an operator command
// runs against. Logs go to stderr so stdout stays readable.
type cliEnv struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
}

func (e *cliEnv) close() {
	if e.db != nil {
		_ = e.db.Close()
	}
}

func (e *cliEnv) words() *postgres.PostgresWordStore {
	return postgres.NewPostgresWordStore(e.db, e.logger).WithLoadBatchSize(e.cfg.Pool.LoadBatchSize)
}

func (e *cliEnv) assignment() assignment.Service {
	return assignment.NewService(e.words(), e.db, assignment.Options{
		ClaimTimeout: e.cfg.Reclaim.Timeout(),
		MaxAttempts:  e.cfg.Pool.ClaimMaxAttempts,
	}, e.logger)
}

// loadCLIConfig reads configuration and installs a stderr logger.
func loadCLIConfig(cmd *cobra.Command) (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, printError(cmd.ErrOrStderr(), "Failed to load configuration", err)
	}
	log, err := logger.SetupWithWriter(cfg.Server, cmd.ErrOrStderr())
	if err != nil {
		return nil, printError(cmd.ErrOrStderr(), "Failed to set up logger", err)
	}
	return &cliEnv{cfg: cfg, logger: log}, nil
}

// connectCLI is loadCLIConfig plus a database connection. When migrate is
// true the schema is brought up to date first.
func connectCLI(cmd *cobra.Command, migrate bool) (*cliEnv, error) {
	env, err := loadCLIConfig(cmd)
	if err != nil {
		return nil, err
	}
	env.db, err = openDatabase(cmd.Context(), env.cfg.Database, env.logger)
	if err != nil {
		return nil, printError(cmd.ErrOrStderr(), "Failed to connect to database", err)
	}
	if migrate {
		if err := runMigrations(env.db, "up", env.logger); err != nil {
			env.close()
			return nil, printError(cmd.ErrOrStderr(), "Failed to apply migrations", err)
		}
	}
	return env, nil
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|reset|version]",
		Short:     "Run database migrations (default: up)",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			env, err := connectCLI(cmd, false)
			if err != nil {
				return err
			}
			defer env.close()

			if err := runMigrations(env.db, command, env.logger); err != nil {
				return printError(cmd.ErrOrStderr(), "Migration failed", err)
			}
			printSuccess(cmd.OutOrStdout(), "migrate %s completed", command)
			return nil
		},
	}
}

func newLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load [path]",
		Short: "Load words from a text file into an empty pool",
		Long: `load reads whitespace-separated words from path (default: pool.source_path),
uppercases them and inserts them in order. It refuses to touch a populated pool.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := connectCLI(cmd, true)
			if err != nil {
				return err
			}
			defer env.close()

			path := env.cfg.Pool.SourcePath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return printError(cmd.ErrOrStderr(), "No word source given",
					errors.New("pass a path or set pool.source_path"))
			}

			f, err := os.Open(path)
			if err != nil {
				return printError(cmd.ErrOrStderr(), "Failed to open word source", err)
			}
			defer func() { _ = f.Close() }()

			res, err := loader.New(env.db, env.words(), env.logger).Load(cmd.Context(), f)
			if errors.Is(err, loader.ErrPoolNotEmpty) {
				printWarning(cmd.OutOrStdout(), "pool already holds %d words, nothing loaded", res.Existing)
				return nil
			}
			if err != nil {
				return printError(cmd.ErrOrStderr(), "Failed to load words", err)
			}
			printSuccess(cmd.OutOrStdout(), "loaded %d words from %s", res.Loaded, path)
			return nil
		},
	}
}

func newCountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of words in the pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := connectCLI(cmd, false)
			if err != nil {
				return err
			}
			defer env.close()

			total, err := env.assignment().CountWords(cmd.Context())
			if err != nil {
				return printError(cmd.ErrOrStderr(), "Failed to count words", err)
			}
			printField(cmd.OutOrStdout(), "total", total)
			return nil
		},
	}
}

func newPeekCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "peek",
		Short: "List the first words of the pool by sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := connectCLI(cmd, false)
			if err != nil {
				return err
			}
			defer env.close()

			words, err := env.assignment().SampleWords(cmd.Context(), limit)
			if err != nil {
				return printError(cmd.ErrOrStderr(), "Failed to read words", err)
			}
			if len(words) == 0 {
				printWarning(cmd.OutOrStdout(), "the pool is empty")
				return nil
			}
			out := cmd.OutOrStdout()
			for _, w := range words {
				printInfo(out, "%6d  %-24s %-10s %s", w.Sequence, w.Text, w.State, w.Holder)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", loader.SampleSize, "number of words to list (1-100)")
	return cmd
}

func newResetCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Return every word to the pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return printError(cmd.ErrOrStderr(), "Refusing to reset without --yes",
					errors.New("reset releases every claimed word"))
			}

			env, err := connectCLI(cmd, false)
			if err != nil {
				return err
			}
			defer env.close()

			n, err := env.assignment().ResetPool(cmd.Context())
			if err != nil {
				return printError(cmd.ErrOrStderr(), "Failed to reset word pool", err)
			}
			printSuccess(cmd.OutOrStdout(), "reset %d words", n)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the reset")
	return cmd
}

func newReclaimCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reclaim",
		Short: "Run one reclamation sweep now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := connectCLI(cmd, false)
			if err != nil {
				return err
			}
			defer env.close()

			scheduler := reclaim.NewScheduler(env.words(), reclaim.Config{
				Interval: env.cfg.Reclaim.Interval(),
				Timeout:  env.cfg.Reclaim.Timeout(),
			}, env.logger)

			n, err := scheduler.RunOnce(cmd.Context())
			if err != nil {
				return printError(cmd.ErrOrStderr(), "Reclamation sweep failed", err)
			}
			printSuccess(cmd.OutOrStdout(), "reclaimed %d words", n)
			return nil
		},
	}
}

func newAdminTokenCommand() *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint an admin token for the reset endpoint",
		Long: `admin-token signs a token with auth.admin_secret. The token is the only
thing written to stdout, so it can be captured by scripts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadCLIConfig(cmd)
			if err != nil {
				return err
			}
			if env.cfg.Auth.AdminSecret == "" {
				return printError(cmd.ErrOrStderr(), "Admin guard is disabled",
					errors.New("set auth.admin_secret (WORDCLAIM_AUTH_ADMIN_SECRET)"))
			}

			tokens, err := auth.NewTokenService(env.cfg.Auth)
			if err != nil {
				return printError(cmd.ErrOrStderr(), "Failed to initialize token service", err)
			}
			token, err := tokens.GenerateAdminToken(cmd.Context(), subject)
			if err != nil {
				return printError(cmd.ErrOrStderr(), "Failed to sign admin token", err)
			}

			printInfo(cmd.OutOrStdout(), "%s", token)
			printSuccess(cmd.ErrOrStderr(), "token for %q valid for %d minutes",
				subject, env.cfg.Auth.TokenLifetimeMinutes)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "subject recorded in the token")
	return cmd
}

