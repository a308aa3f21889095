package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Lelo88/watch-catalog-api/internal/auth"
	"github.com/Lelo88/watch-catalog-api/internal/importer"
)

func newRootCommand(deps cliDeps) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Watch catalog operations",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		migrateCommand(deps),
		importCommand(deps),
		tokenCommand(deps),
	)
	return rootCmd
}

// session es lo que comparten migrate e import: logger y pool abiertos.
type session struct {
	logger *zap.Logger
	pool   cliPool
}

func (s *session) Close() {
	s.pool.Close()
	_ = s.logger.Sync()
}

func openSession(cmd *cobra.Command, deps cliDeps) (*session, error) {
	cfg, err := deps.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := deps.newLogger(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return nil, err
	}
	pool, err := deps.newPool(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &session{logger: logger, pool: pool}, nil
}

func migrateCommand(deps cliDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, deps)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := deps.migrate(cmd.Context(), s.pool); err != nil {
				return err
			}
			s.logger.Info("migrations applied")
			return nil
		},
	}
}

func importCommand(deps cliDeps) *cobra.Command {
	var (
		file    string
		options importer.Options
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import watches from a semicolon-delimited CSV file",
		Long: `Import watches from the dataset CSV (semicolon-delimited, header row).
Rows are inserted in batches, one transaction per batch. Invalid rows are
skipped; the run aborts once skipped rows exceed --max-errors.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := deps.openFile(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer input.Close()

			s, err := openSession(cmd, deps)
			if err != nil {
				return err
			}
			defer s.Close()

			run := importer.New(deps.newStore(s.pool), options, s.logger, nil)
			report, runErr := run.Run(cmd.Context(), input)

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(report); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the CSV file")
	cmd.Flags().IntVar(&options.BatchSize, "batch-size", importer.DefaultBatchSize, "Rows per insert transaction (max 1000)")
	cmd.Flags().IntVar(&options.MaxErrors, "max-errors", importer.DefaultMaxErrors, "Invalid rows tolerated before aborting")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func tokenCommand(deps cliDeps) *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
		secret string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed JWT for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != auth.RoleUser && role != auth.RoleAdmin {
				return fmt.Errorf("role must be %q or %q", auth.RoleUser, auth.RoleAdmin)
			}
			if secret == "" {
				secret = deps.getenv("JWT_SECRET")
			}
			if secret == "" {
				return errors.New("JWT secret not set (use --secret or JWT_SECRET)")
			}

			token, err := auth.NewVerifier(secret).Issue(userID, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Subject (user id) of the token")
	cmd.Flags().StringVarP(&role, "role", "r", auth.RoleUser, "Role claim: user or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret (defaults to JWT_SECRET)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
