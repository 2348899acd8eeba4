// Command dealdesk runs the CRM API and its maintenance tasks.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dealdesk/internal/app"
	"dealdesk/internal/config"
	"dealdesk/internal/database"
	"dealdesk/internal/models"
)

var (
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "dealdesk",
	Short:         "dealdesk CRM backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.LoadConfig(configPath); err != nil {
			return err
		}
		if logger, err = app.NewLogger(cfg.Log.Level); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Run(ctx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(cmd.Context(), cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		logger.Info("schema up to date", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}

var (
	newUserName     string
	newUserEmail    string
	newUserPassword string
	newUserRole     string
)

// createUserCmd seeds an account, typically the first admin.
var createUserCmd = &cobra.Command{
	Use:     "create-user",
	Short:   "Create a user account",
	Example: `  dealdesk create-user --name Admin --email admin@example.com --password s3cret! --role admin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.Users.Create(cmd.Context(), models.CreateUserRequest{
			Name:     newUserName,
			Email:    newUserEmail,
			Password: newUserPassword,
			Role:     newUserRole,
		})
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid user: %s", verr.Msg)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", u.Role, u.Email, u.ID)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")

	createUserCmd.Flags().StringVar(&newUserName, "name", "", "display name")
	createUserCmd.Flags().StringVar(&newUserEmail, "email", "", "login email")
	createUserCmd.Flags().StringVar(&newUserPassword, "password", "", "initial password")
	createUserCmd.Flags().StringVar(&newUserRole, "role", "admin", "admin, manager or rep")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(serveCmd, migrateCmd, createUserCmd)
}

// @title                       dealdesk API
// @version                     1.0
// @description                 CRM backend: pipelines, deals with optimistic versioning, contacts, activities, files and reports.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
