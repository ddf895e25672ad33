package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/orgcrud/internal/config"
	"github.com/dropDatabas3/orgcrud/internal/http/server"
	"github.com/dropDatabas3/orgcrud/internal/infra/tenantsql"
	"github.com/dropDatabas3/orgcrud/internal/observability/logger"
)

// version se setea con -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	var cfgPath = os.Getenv("CONFIG_PATH")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		logger.Init(logger.Config{
			Env:         cfg.App.Env,
			Level:       cfg.App.LogLevel,
			ServiceName: cfg.App.ServiceName,
			Version:     version,
		})
		return cfg, nil
	}

	root := &cobra.Command{
		Use:           "orgcrud",
		Short:         "API CRUD multi-tenant de usuarios, grupos y escuelas",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", cfgPath, "Archivo YAML de configuración (env CONFIG_PATH)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			srv, err := server.New(cfg, server.Options{Version: version})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	var (
		audiences []string
		timeout   time.Duration
	)
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Crea (si falta) y migra la base de cada audiencia",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if len(audiences) == 0 {
				if cfg.Database.MultiTenancy {
					return fmt.Errorf("--audience is required when multi-tenancy is enabled")
				}
				audiences = []string{cfg.FixedAudience()}
			}

			mcfg, err := server.ManagerConfig(cfg)
			if err != nil {
				return err
			}
			var results []string
			mcfg.MetricsFunc = func(database, result string, d time.Duration) {
				results = append(results, fmt.Sprintf("%s\t%s\t%s", database, result, d.Round(time.Millisecond)))
			}
			mgr, err := tenantsql.New(mcfg)
			if err != nil {
				return err
			}
			defer mgr.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			var failed []string
			for _, aud := range audiences {
				if _, err := mgr.Get(ctx, aud); err != nil {
					logger.L().Error("migrate failed", logger.Audience(aud), logger.Err(err))
					failed = append(failed, aud)
				}
			}
			for _, line := range results {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			if len(failed) > 0 {
				return fmt.Errorf("migrate failed for: %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}
	migrateCmd.Flags().StringSliceVar(&audiences, "audience", nil, "Audiencia a migrar (repetible o separada por comas)")
	migrateCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Tiempo máximo total")

	dbnameCmd := &cobra.Command{
		Use:   "dbname <audience>",
		Short: "Imprime el nombre de base derivado de una audiencia",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			name, err := tenantsql.DatabaseName(cfg.Database.NamePrefix, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}

	root.AddCommand(serveCmd, migrateCmd, dbnameCmd)

	err := root.ExecuteContext(context.Background())
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
