package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haukened/rr-zones/internal/dns/common/clock"
	"github.com/haukened/rr-zones/internal/dns/common/log"
	"github.com/haukened/rr-zones/internal/dns/common/utils"
	"github.com/haukened/rr-zones/internal/dns/config"
	"github.com/haukened/rr-zones/internal/dns/domain"
	"github.com/haukened/rr-zones/internal/dns/repos/soa"
	"github.com/haukened/rr-zones/internal/dns/repos/table"
	"github.com/haukened/rr-zones/internal/dns/repos/zone"
	"github.com/haukened/rr-zones/internal/dns/repos/zonecache"
	"github.com/haukened/rr-zones/internal/dns/repos/zonedb"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "rr-zonesd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the zone daemon
type Application struct {
	config   *config.AppConfig
	db       *table.DB
	store    *zonedb.Store
	cache    *zonecache.ZoneCache
	negCache *soa.NegativeCache
	watcher  *zone.Watcher
	registry *prometheus.Registry
	metrics  *http.Server
	names    []string
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"app":          appName,
		"version":      version,
		"env":          cfg.Env,
		"log_level":    cfg.LogLevel,
		"zone_dir":     cfg.ZoneDir,
		"db_path":      cfg.DBPath,
		"watch_zones":  cfg.WatchZones,
		"metrics_addr": cfg.MetricsAddr,
	}, "Starting RR-Zones daemon")

	app, err := buildApplication(cfg, os.Args[1:])
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Daemon failed")
	}

	log.Info(nil, "RR-Zones daemon stopped gracefully")
}

// buildApplication opens the backing store, imports the zone directory into
// it and wires the zone cache on top. names are resolved once Run starts.
func buildApplication(cfg *config.AppConfig, names []string) (*Application, error) {
	clk := &clock.RealClock{}
	logger := log.GetLogger()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := table.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zone database: %w", err)
	}

	app, err := buildComponents(cfg, db, clk, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	app.names = names
	return app, nil
}

// buildComponents wires the store, providers, cache, watcher and metrics
// server over an open database.
func buildComponents(cfg *config.AppConfig, db *table.DB, clk clock.Clock, logger log.Logger) (*Application, error) {
	store, err := zonedb.New(db, zonedb.Options{
		FPRate: cfg.BloomFPRate,
		Logger: logger,
		Clock:  clk,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open zone store: %w", err)
	}

	files, err := zone.LoadFiles(cfg.ZoneDir, cfg.DefaultTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load zone directory: %w", err)
	}
	zones := groupByRoot(files)
	for root, records := range zones {
		if err := store.PutRecords(root, records); err != nil {
			return nil, fmt.Errorf("failed to import zone %s: %w", root, err)
		}
	}

	log.Info(map[string]any{
		"zone_dir": cfg.ZoneDir,
		"files":    len(files),
		"zones":    len(zones),
	}, "Zone directory imported")

	var provider soa.Provider = soa.NewZoneDB(store, logger)
	var negCache *soa.NegativeCache
	provider, err = soa.NewNegativeCache(provider, cfg.NegativeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create negative cache: %w", err)
	}
	if nc, ok := provider.(*soa.NegativeCache); ok {
		negCache = nc
		log.Info(map[string]any{"size": cfg.NegativeCacheSize}, "SOA negative cache configured")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	cache := zonecache.New(zonecache.Options{
		Source:    store,
		Providers: []zonecache.SOAProvider{provider},
		Clock:     clk,
		Logger:    logger,
		Metrics:   zonecache.NewMetrics(registry),
	})

	app := &Application{
		config:   cfg,
		db:       db,
		store:    store,
		cache:    cache,
		negCache: negCache,
		registry: registry,
	}

	if cfg.WatchZones {
		w, err := zone.NewWatcher(cfg.ZoneDir, cfg.DefaultTTL, files, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to watch zone directory: %w", err)
		}
		w.OnChange(app.applyUpdate)
		app.watcher = w
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
		app.metrics = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return app, nil
}

// groupByRoot merges the records of files that share a zone root.
func groupByRoot(files []zone.File) map[string][]domain.ResourceRecord {
	out := make(map[string][]domain.ResourceRecord)
	for _, f := range files {
		root := utils.CanonicalDNSName(f.Root)
		out[root] = append(out[root], f.Records...)
	}
	return out
}

// applyUpdate syncs one changed zone into the store and the cache. Files of
// the same root are merged, so the whole directory is reread for that root.
func (app *Application) applyUpdate(u zone.Update) {
	root := utils.CanonicalDNSName(u.Root)
	if root == "" {
		return
	}
	records := u.Records
	zones, err := zone.LoadZoneDirectory(app.config.ZoneDir, app.config.DefaultTTL, log.GetLogger())
	if err != nil {
		log.Warn(map[string]any{"zone": root, "error": err}, "Failed to reread zone directory, using changed file only")
	} else {
		records = zones[root]
	}
	if err := app.syncZone(root, records); err != nil {
		log.Error(map[string]any{"zone": root, "error": err}, "Failed to apply zone update")
		return
	}
	log.Info(map[string]any{
		"zone":    root,
		"path":    u.Path,
		"records": len(records),
		"removed": u.Removed,
	}, "Zone updated")
}

// syncZone replaces root in the store and the cache with records. No records
// removes the zone from the store and caches it empty.
func (app *Application) syncZone(root string, records []domain.ResourceRecord) error {
	if len(records) == 0 {
		if err := app.store.DeleteZone(root); err != nil {
			return err
		}
	} else if err := app.store.PutRecords(root, records); err != nil {
		return err
	}

	z := zonecache.BuildZone(root, records, nil, nil)
	app.cache.PutZone(root, *z)
	if authority, ok := z.SOA(); ok {
		app.cache.PutAuthority(root, authority)
	}
	if app.negCache != nil {
		app.negCache.Purge()
	}
	return nil
}

// Resolution is what the daemon reports for one name.
type Resolution struct {
	Name        string
	Zone        string
	InZone      bool
	Records     []domain.ResourceRecord
	Delegations []domain.ResourceRecord
}

// Resolve runs name through the zone cache.
func (app *Application) Resolve(ctx context.Context, name string) (Resolution, error) {
	res := Resolution{Name: utils.CanonicalDNSName(name)}
	z, err := app.cache.FindZone(ctx, name)
	if err != nil {
		return res, err
	}
	res.Zone = z.Name
	res.InZone = app.cache.InZone(name)
	res.Records = app.cache.GetRecordsByName(name)
	res.Delegations = app.cache.GetDelegations(name)
	return res, nil
}

func (app *Application) resolveNames(ctx context.Context) {
	for _, name := range app.names {
		res, err := app.Resolve(ctx, name)
		if err != nil {
			log.Warn(map[string]any{"name": name, "error": err}, "Name not resolved")
			continue
		}
		records := make([]string, 0, len(res.Records))
		for _, rr := range res.Records {
			records = append(records, rr.String())
		}
		log.Info(map[string]any{
			"name":        res.Name,
			"zone":        res.Zone,
			"in_zone":     res.InZone,
			"records":     records,
			"delegations": len(res.Delegations),
		}, "Name resolved")
	}
}

// Run starts the watcher and metrics server and blocks until ctx is cancelled
func (app *Application) Run(ctx context.Context) error {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	if app.watcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.watcher.Start(runCtx); err != nil {
				errCh <- fmt.Errorf("zone watcher: %w", err)
			}
		}()
	}

	if app.metrics != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info(map[string]any{"address": app.metrics.Addr}, "Metrics server started")
			if err := app.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	app.resolveNames(runCtx)

	log.Info(map[string]any{
		"cached_zones": app.cache.Zones(),
		"records":      app.cache.Count(),
	}, "Zone daemon ready")

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		log.Error(map[string]any{"error": runErr}, "Component failed")
	}
	stop()

	log.Info(nil, "Shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if app.metrics != nil {
		if err := app.metrics.Shutdown(shutdownCtx); err != nil {
			log.Warn(map[string]any{"error": err}, "Error during metrics server shutdown")
		}
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}

	if app.watcher != nil {
		_ = app.watcher.Close()
	}
	if err := app.db.Close(); err != nil {
		log.Warn(map[string]any{"error": err}, "Error closing zone database")
	}
	log.Info(nil, "Graceful shutdown completed")
	return runErr
}
