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

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jengzang/periodic-risk-go/internal/analysis/temporal"
	"github.com/jengzang/periodic-risk-go/internal/api"
	"github.com/jengzang/periodic-risk-go/internal/database"
	"github.com/jengzang/periodic-risk-go/internal/middleware"
	"github.com/jengzang/periodic-risk-go/internal/models"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default)",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	gin.SetMode(gin.ReleaseMode)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Stop()

	// 初始化路由
	router := api.SetupRouter(api.Deps{
		Config:   cfg,
		Services: a.services,
		Metrics:  a.metrics,
		Logger:   log.Logger,
		Limiter:  limiter,
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		// 启动服务器
		log.Info().Str("addr", cfg.Port).Str("version", version).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
	}
	return nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.Open(database.Config{Path: cfg.DBPath})
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := database.NewMigrationManager(db).RunMigrations()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
			return nil
		},
	}
}

func newTrainCmd() *cobra.Command {
	var accountID string
	var incremental bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train risk profiles synchronously",
		Long:  "Trains the profile of one account, or runs a periodic_time task over all accounts.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if accountID != "" {
				sample, err := a.services.Events.Sample(ctx, accountID)
				if err != nil {
					return err
				}
				profile, err := a.trainer.TrainEntity(accountID, sample.Times)
				if err != nil {
					return err
				}
				profile.LastEventID = sample.LastEventID
				if err := a.services.Profiles.Save(ctx, profile); err != nil {
					return err
				}
				for _, dp := range profile.Domains {
					fmt.Fprintf(out, "%-9s bandwidth=%.4f confidence=%.4f converged=%t\n", dp.Domain, dp.Bandwidth, dp.Confidence, dp.Converged)
				}
				return nil
			}

			mode := models.TaskTypeFullRecompute
			if incremental {
				mode = models.TaskTypeIncremental
			}
			task, err := a.services.Tasks.RunTask(ctx, temporal.SkillName, mode, "cli")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "task %d %s: %d accounts, %d failed\n", task.ID, task.Status, task.ProcessedEntities, task.FailedEntities)
			if task.Status == models.TaskStatusFailed {
				return errors.New(task.ErrorMessage)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Train only this account")
	cmd.Flags().BoolVar(&incremental, "incremental", false, "Only train accounts with new events")
	return cmd
}

func newScoreCmd() *cobra.Command {
	var accountID, at string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one transaction time against an account profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ts, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("invalid --at %q: %w", at, err)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.services.Scoring.ScoreAt(cmd.Context(), accountID, ts)
			if err != nil {
				return err
			}
			if res.Risk == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "undefined (%s)\n", res.Reason)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", *res.Risk)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	cmd.Flags().StringVar(&at, "at", "", "Transaction time (RFC3339)")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an admin JWT",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			token, err := middleware.IssueToken(cfg.JWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "Token subject, recorded as task creator")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
