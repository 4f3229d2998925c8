package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/dnscache"
	"golang.org/x/sync/errgroup"

	warden "github.com/wardenio/warden/internal"
	"github.com/wardenio/warden/internal/cache"
	"github.com/wardenio/warden/internal/config"
	"github.com/wardenio/warden/internal/lifecycle"
	"github.com/wardenio/warden/internal/policy"
	"github.com/wardenio/warden/internal/provider"
	"github.com/wardenio/warden/internal/provider/azuresafety"
	"github.com/wardenio/warden/internal/provider/memvec"
	"github.com/wardenio/warden/internal/provider/openaiembed"
	"github.com/wardenio/warden/internal/provider/openaimod"
	"github.com/wardenio/warden/internal/provider/sqlitevec"
	"github.com/wardenio/warden/internal/providerauth"
	"github.com/wardenio/warden/internal/registry"
	"github.com/wardenio/warden/internal/server"
	"github.com/wardenio/warden/internal/storage/sqlite"
	"github.com/wardenio/warden/internal/telemetry"
	"github.com/wardenio/warden/internal/worker"
)

func run(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	slog.Info("starting warden", "version", version, "addr", cfg.Server.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Tracing
	if cfg.Telemetry.Tracing.Enabled {
		shutdown, err := telemetry.SetupTracing(ctx,
			cfg.Telemetry.Tracing.Endpoint, cfg.Telemetry.Tracing.SampleRate)
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				slog.Error("tracing shutdown failed", "error", err)
			}
		}()
	}

	// Open database
	store, err := sqlite.New(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	// Bootstrap from config
	if err := config.Bootstrap(ctx, cfg, store); err != nil {
		return err
	}

	// Metrics
	var (
		metrics  *telemetry.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Telemetry.Metrics.Enabled {
		promReg := prometheus.NewRegistry()
		metrics = telemetry.NewMetrics(promReg)
		gatherer = promReg
	}

	policies, err := policy.Load()
	if err != nil {
		return err
	}

	var verdicts cache.VerdictCache
	if cfg.Cache.Enabled {
		mem, err := cache.NewMemory(cfg.Cache.MaxSize, cfg.Cache.DefaultTTL)
		if err != nil {
			return err
		}
		verdicts = mem
	}

	// Registry and lifecycle
	reg := registry.New(cfg.Registry.ParsedCardinalities())
	recorder := worker.NewEventRecorder(store, metrics)
	manager := lifecycle.NewManager(reg, recorder, metrics)

	catalog, err := buildCatalog(ctx, cfg, store, verdicts, metrics)
	if err != nil {
		return err
	}

	// Bind enabled providers at startup. The stored enabled flag wins over
	// the config file so admin bind/unbind decisions survive restarts;
	// disabled entries stay in the catalog for later admin binds.
	for _, p := range cfg.Providers {
		category := warden.Category(p.Category)
		id := warden.ProviderID(category, p.Type)

		enabled := p.IsEnabled()
		if pc, err := store.GetProviderConfig(ctx, id); err == nil {
			enabled = pc.Enabled
		}
		if !enabled {
			continue
		}
		handle, ok := catalog[id]
		if !ok {
			continue
		}
		if err := manager.OnProviderAvailable(warden.Descriptor{
			Category: category,
			Type:     p.Type,
			Handle:   handle,
		}); err != nil {
			return err
		}
	}

	adminKey := cfg.Auth.AdminKey
	if adminKey == "" {
		adminKey = config.GenerateAdminKey()
		slog.Warn("no admin key configured, generated one for this run", "key", adminKey)
	}

	// Create HTTP server
	handler := server.New(server.Deps{
		Registry:     reg,
		Lifecycle:    manager,
		Policies:     policies,
		Store:        store,
		Catalog:      catalog,
		AdminKeyHash: warden.HashKey(adminKey),
		Metrics:      metrics,
		Gatherer:     gatherer,
		ReadyCheck:   store.Ping,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	runner := worker.NewRunner(
		recorder,
		worker.NewHealthProbe(reg, metrics, cfg.Workers.ProbeInterval, cfg.Workers.ProbeTimeout),
		worker.NewSweeper(store, cfg.Workers.SweepInterval, cfg.Workers.EventRetention),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return runner.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("warden ready", "addr", cfg.Server.Addr)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("warden stopped")
	return nil
}

// buildCatalog constructs provider handles from the config file, keyed by
// provider ID. Unknown types are skipped with a warning so one typo does
// not take the whole service down.
func buildCatalog(ctx context.Context, cfg *config.Config, store *sqlite.Store, verdicts cache.VerdictCache, metrics *telemetry.Metrics) (map[string]warden.Handle, error) {
	resolver := &dnscache.Resolver{}
	base := provider.NewTransport(resolver)

	catalog := make(map[string]warden.Handle, len(cfg.Providers))
	for _, p := range cfg.Providers {
		handle, err := buildHandle(ctx, cfg, p, base, store, verdicts, metrics)
		if err != nil {
			return nil, fmt.Errorf("provider %s/%s: %w", p.Category, p.Type, err)
		}
		if handle == nil {
			slog.Warn("unknown provider, skipping", "category", p.Category, "type", p.Type)
			continue
		}
		catalog[warden.ProviderID(warden.Category(p.Category), p.Type)] = handle
	}
	return catalog, nil
}

// buildHandle returns the handle for one config entry, or nil when the
// category/type combination is not recognized.
func buildHandle(ctx context.Context, cfg *config.Config, p config.ProviderEntry, base http.RoundTripper, store *sqlite.Store, verdicts cache.VerdictCache, metrics *telemetry.Metrics) (warden.Handle, error) {
	switch warden.Category(p.Category) {
	case warden.CategoryContentSafety:
		client, err := newProviderClient(ctx, p, base)
		if err != nil {
			return nil, err
		}
		var cs warden.ContentSafety
		switch warden.NormalizeType(p.Type) {
		case "azure":
			cs = azuresafety.New(p.BaseURL, client, p.Threshold)
		case "openai-moderation":
			cs = openaimod.New(p.BaseURL, p.Model, client)
		default:
			return nil, nil
		}
		if verdicts != nil {
			cs = provider.NewCachedContentSafety(cs, verdicts, cfg.Cache.DefaultTTL, metrics)
		}
		return cs, nil

	case warden.CategoryEmbedding:
		client, err := newProviderClient(ctx, p, base)
		if err != nil {
			return nil, err
		}
		return openaiembed.NewWithHosting(warden.NormalizeType(p.Type), p.BaseURL, p.Model, client, p.Hosting), nil

	case warden.CategoryVectorStore:
		switch warden.NormalizeType(p.Type) {
		case "memory":
			return memvec.New(p.MaxSize), nil
		case "sqlite":
			return sqlitevec.New(store), nil
		default:
			return nil, nil
		}

	default:
		return nil, nil
	}
}

// newProviderClient builds an HTTP client with the entry's auth transport.
func newProviderClient(ctx context.Context, p config.ProviderEntry, base http.RoundTripper) (*http.Client, error) {
	timeout := time.Duration(max(5000, p.TimeoutMs)) * time.Millisecond

	var rt http.RoundTripper
	switch p.ResolvedAuthType() {
	case "gcp_oauth":
		t, err := providerauth.NewGCPOAuthTransport(ctx, base, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return nil, err
		}
		rt = t
	case "aws_sigv4":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		region, service := awsCfg.Region, "bedrock"
		if p.Auth != nil {
			if p.Auth.Region != "" {
				region = p.Auth.Region
			}
			if p.Auth.Service != "" {
				service = p.Auth.Service
			}
		}
		rt = providerauth.NewAWSSigV4Transport(base, awsCfg.Credentials, region, service)
	default:
		key := p.ResolvedAPIKey()
		if key == "" {
			rt = base
			break
		}
		header, prefix := apiKeyHeader(p)
		rt = &providerauth.APIKeyTransport{Key: key, HeaderName: header, Prefix: prefix, Base: base}
	}
	return &http.Client{Transport: rt, Timeout: timeout}, nil
}

// apiKeyHeader returns the header and value prefix for key auth, matching
// each backend's convention.
func apiKeyHeader(p config.ProviderEntry) (header, prefix string) {
	if p.Auth != nil && p.Auth.Header != "" {
		return p.Auth.Header, p.Auth.Prefix
	}
	switch {
	case p.Category == "content-safety" && warden.NormalizeType(p.Type) == "azure":
		return "Ocp-Apim-Subscription-Key", ""
	case p.Hosting == "azure":
		return "api-key", ""
	default:
		return "Authorization", "Bearer "
	}
}
