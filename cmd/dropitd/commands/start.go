package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/scotow/dropit/internal/admin"
	"github.com/scotow/dropit/internal/api"
	"github.com/scotow/dropit/internal/auth"
	"github.com/scotow/dropit/internal/blobstore"
	"github.com/scotow/dropit/internal/config"
	"github.com/scotow/dropit/internal/download"
	"github.com/scotow/dropit/internal/expiration"
	"github.com/scotow/dropit/internal/logger"
	"github.com/scotow/dropit/internal/metastore/gormstore"
	"github.com/scotow/dropit/internal/metrics"
	"github.com/scotow/dropit/internal/origin"
	"github.com/scotow/dropit/internal/quota"
	"github.com/scotow/dropit/internal/reaper"
	"github.com/scotow/dropit/internal/upload"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the dropit server",
	Long: `Start the dropit HTTP server with the given configuration.

Examples:
  dropitd start
  dropitd start --config /etc/dropit/config.yaml
  DROPIT_LOGGING_LEVEL=debug dropitd start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Info("dropitd starting", "version", Version, "commit", Commit)

	meta, err := gormstore.New(cfg.GORMStoreConfig())
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer func() {
		if err := meta.Close(); err != nil {
			logger.Error("close metadata store", "error", err)
		}
	}()

	blobs, err := blobstore.New(blobstore.Config{Dir: cfg.Storage.Directory})
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	expiry, err := expiration.New(cfg.ExpirationThresholds())
	if err != nil {
		return fmt.Errorf("build expiration policy: %w", err)
	}

	var identity origin.Identity
	var verifier *auth.Verifier
	if cfg.Auth.Enabled {
		verifier, err = auth.New(auth.Config{
			Secret: cfg.Auth.Secret,
			Issuer: cfg.Auth.Issuer,
		})
		if err != nil {
			return fmt.Errorf("init auth: %w", err)
		}
		identity = verifier
	}

	originMode := origin.ModeIP
	if cfg.Origin.Mode == "username" {
		originMode = origin.ModeUsername
	}
	resolver := origin.New(origin.Config{
		Mode:        originMode,
		BehindProxy: cfg.Origin.BehindProxy,
		Identity:    identity,
	})

	predicates := buildQuotaPredicates(cfg)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	uploads := upload.New(meta, blobs, predicates, expiry)
	downloads := download.New(meta, blobs, m)
	mutator := admin.New(meta, blobs, expiry, m)

	handlers := api.NewHandlers(api.Deps{
		Meta:      meta,
		Blobs:     blobs,
		Uploads:   uploads,
		Downloads: downloads,
		Admin:     mutator,
		Origin:    resolver,
		LinkBase:  cfg.Server.LinkBase,
		Metrics:   m,
	})
	router := api.NewRouter(handlers, api.Config{
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rp := reaper.New(meta, blobs, reaper.Config{Interval: cfg.Reaper.Interval, Metrics: m})
	go rp.Run(ctx)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-sig:
		logger.Info("shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}

	logger.Info("dropitd stopped")
	return nil
}

func buildQuotaPredicates(cfg *config.Config) []quota.Predicate {
	var predicates []quota.Predicate
	if cfg.Quota.OriginMaxSize > 0 || cfg.Quota.OriginMaxCount > 0 {
		predicates = append(predicates, quota.OriginQuota{
			MaxSize:  cfg.Quota.OriginMaxSize,
			MaxCount: cfg.Quota.OriginMaxCount,
		})
	}
	if cfg.Quota.GlobalMaxSize > 0 {
		predicates = append(predicates, quota.GlobalQuota{MaxSize: cfg.Quota.GlobalMaxSize})
	}
	return predicates
}
