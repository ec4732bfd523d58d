package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"landlords/config"
	"landlords/internal/database"
	"landlords/internal/logger"
	"landlords/internal/repository"
	"landlords/internal/router"
	"landlords/pkg/levy"
	"landlords/pkg/mailer"
	"landlords/pkg/payment"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var Version = "dev"

func main() {
	logger.Init("landlords")

	rootCmd := &cobra.Command{
		Use:           "landlords",
		Short:         "Landlords&Tenant room levy backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(deliverCmd())

	if err := rootCmd.Execute(); err != nil {
		logger.Logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// app is everything a command needs after config, database and integrations are up.
type app struct {
	cfg *config.Config
	db  *gorm.DB
	svc *router.Services
}

func bootstrap(migrate bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	db, err := database.NewDB(&cfg.Database, cfg.Server.Env)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if migrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if err := database.SeedAdmin(db, &cfg.Admin); err != nil {
			return nil, fmt.Errorf("seed admin: %w", err)
		}
		defaults := repository.PricingDefaults(levy.Pricing{
			FeePerRoomCents:   cfg.Levy.FeePerRoomCents,
			DiscountThreshold: cfg.Levy.DiscountThreshold,
			DiscountPercent:   cfg.Levy.DiscountPercent,
		})
		if err := repository.NewSettingRepository(db).SeedDefaults(defaults); err != nil {
			return nil, fmt.Errorf("seed settings: %w", err)
		}
	}

	provider, err := payment.New(payment.Options{
		Provider:   cfg.Gateway.Provider,
		SecretKey:  cfg.Gateway.SecretKey,
		BaseURL:    cfg.Gateway.BaseURL,
		Production: cfg.Gateway.Production,
		Timeout:    cfg.Gateway.Timeout,
	})
	if err != nil {
		return nil, err
	}
	mail, err := mailer.New(mailer.Options{
		Provider:    cfg.Mail.Provider,
		APIKey:      cfg.Mail.SendgridAPIKey,
		FromEmail:   cfg.Mail.FromEmail,
		FromName:    cfg.Mail.FromName,
		SandboxMode: cfg.Mail.SandboxMode,
	})
	if err != nil {
		return nil, err
	}
	logger.Logger.WithFields(map[string]interface{}{
		"env":     cfg.Server.Env,
		"gateway": provider.Name(),
		"mail":    cfg.Mail.Provider,
	}).Info("bootstrap complete")

	return &app{cfg: cfg, db: db, svc: router.NewServices(cfg, db, provider, mail)}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(true)
			if err != nil {
				return err
			}

			if a.cfg.Jobs.Enabled {
				c, err := scheduleJobs(a)
				if err != nil {
					return err
				}
				c.Start()
				defer func() { <-c.Stop().Done() }()
				logger.Logger.Info("scheduled background jobs")
			}

			srv := &http.Server{
				Addr:         ":" + a.cfg.Server.Port,
				Handler:      router.Setup(a.cfg, a.db, a.svc),
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
			}
			errCh := make(chan error, 1)
			go func() {
				logger.Logger.Infof("server listening on :%s", a.cfg.Server.Port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return fmt.Errorf("listen: %w", err)
			case <-quit:
			}
			logger.Logger.Info("shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Logger.Info("server stopped")
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed the admin account and levy settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := bootstrap(true); err != nil {
				return err
			}
			logger.Logger.Info("migration complete")
			return nil
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Apply verified levy payments that were not applied to rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(false)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Jobs.JobTimeout)
			defer cancel()
			report, err := a.svc.Levy.Reconcile(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked=%d applied=%d skipped=%d\n", report.Checked, report.Applied, report.Skipped)
			return nil
		},
	}
}

func deliverCmd() *cobra.Command {
	var maxAttempts int
	cmd := &cobra.Command{
		Use:   "deliver",
		Short: "Retry announcement emails that failed to send",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(false)
			if err != nil {
				return err
			}
			if maxAttempts <= 0 {
				maxAttempts = a.cfg.Mail.MaxAttempts
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Jobs.JobTimeout)
			defer cancel()
			report, err := a.svc.Announcement.RetryFailed(ctx, maxAttempts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attempted=%d sent=%d failed=%d\n", report.Attempted, report.Sent, report.Failed)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "skip recipients with this many attempts (default MAIL_MAX_ATTEMPTS)")
	return cmd
}
