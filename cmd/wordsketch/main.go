package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yourusername/word-sketch/internal/api"
	"github.com/yourusername/word-sketch/internal/cdc"
	"github.com/yourusername/word-sketch/internal/config"
	"github.com/yourusername/word-sketch/internal/exact"
	"github.com/yourusername/word-sketch/internal/storage"
	"github.com/yourusername/word-sketch/pkg/sketch"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	inputPath := flag.String("input", "", "text file to count (overrides input.path)")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to listen on for metrics")
	serve := flag.Bool("serve", false, "keep running: serve the API and consume CDC events")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *inputPath != "" {
		cfg.Input.Path = *inputPath
	}

	var (
		db        *sql.DB
		snapshots *storage.SnapshotStore
	)
	if cfg.Database.Enabled() {
		db, err = storage.NewPostgresDB(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		snapshots = storage.NewSnapshotStore(db)
		if err := snapshots.Migrate(context.Background()); err != nil {
			log.Fatalf("Failed to migrate snapshot table: %v", err)
		}
	}

	var agg *sketch.Aggregator
	if *serve && cfg.Snapshot.Restore {
		agg, err = restoreAggregator(context.Background(), cfg, snapshots)
		switch {
		case errors.Is(err, storage.ErrSnapshotNotFound):
			log.Printf("No snapshot named %q yet, starting empty", cfg.Snapshot.Name)
		case err != nil:
			log.Fatalf("Failed to restore snapshot: %v", err)
		default:
			log.Printf("Restored snapshot %q (%d events)", cfg.Snapshot.Name, agg.Sketch().TotalCount())
		}
	}
	if agg == nil {
		agg, err = buildAggregator(cfg)
		if err != nil {
			log.Fatalf("Failed to build sketch: %v", err)
		}
	}
	cms := agg.Sketch()
	log.Printf("Sketch: %d rows x %d columns (%s hash)", cms.Rows(), cms.Columns(), hashName(cfg))

	if cfg.Input.Path != "" {
		counter := exact.NewCounter()
		if err := ingestFile(context.Background(), cfg.Input.Path, agg, counter); err != nil {
			log.Fatalf("Failed to ingest %s: %v", cfg.Input.Path, err)
		}
		log.Printf("Ingested %d words (%d distinct) from %s", counter.Total(), counter.Len(), cfg.Input.Path)

		report := checkAccuracy(agg, counter)
		log.Printf("Accuracy: %s", report)
		for _, d := range report.Worst {
			log.Printf("  %-20s exact=%d estimate=%d over=%d", d.Key, d.Exact, d.Estimate, d.OverCount)
		}

		if err := writeOutputs(cfg.Output, agg, counter); err != nil {
			log.Fatalf("Failed to write outputs: %v", err)
		}
		if snapshots != nil {
			if err := saveSnapshot(context.Background(), cfg, snapshots, agg); err != nil {
				log.Fatalf("Failed to save snapshot: %v", err)
			}
			log.Printf("Saved snapshot %q", cfg.Snapshot.Name)
		}
	}

	if !*serve {
		return
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Printf("Metrics server listening on %s", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			log.Fatalf("Metrics server failed: %v", err)
		}
	}()

	apiServer := &http.Server{
		Addr:    cfg.API.Addr,
		Handler: api.NewServer(agg, log.Default()).Routes(),
	}
	go func() {
		log.Printf("API server listening on %s", cfg.API.Addr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	var (
		listener *cdc.Listener
		events   <-chan cdc.Event
	)
	if cfg.CDC.Enabled {
		listener, err = cdc.NewListener(cfg.CDC, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to create CDC listener: %v", err)
		}
		if err := listener.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start CDC listener: %v", err)
		}
		events = listener.Events()
	}

	ingester := NewIngester(agg, events, 30*time.Second)
	ingester.Start()
	log.Println("word-sketch started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	if listener != nil {
		listener.Stop()
	}
	ingester.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("API server shutdown: %v", err)
	}
	if snapshots != nil {
		if err := saveSnapshot(ctx, cfg, snapshots, agg); err != nil {
			log.Printf("Failed to save snapshot: %v", err)
		}
	}
	log.Println("Goodbye")
}
