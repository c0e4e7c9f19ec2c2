package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/danielhkuo/council-dilution/auth"
	"github.com/danielhkuo/council-dilution/cliparse"
	"github.com/danielhkuo/council-dilution/db"
	"github.com/danielhkuo/council-dilution/events"
	"github.com/danielhkuo/council-dilution/ledger"
	"github.com/danielhkuo/council-dilution/metrics"
	"github.com/danielhkuo/council-dilution/middleware"
	"github.com/danielhkuo/council-dilution/router"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Key issuing mode: print and exit
	if cfg.IssueKey != "" {
		addr, err := auth.ParseAddress(cfg.IssueKey)
		if err != nil {
			slog.Error("invalid address", "address", cfg.IssueKey, "error", err)
			os.Exit(1)
		}
		fmt.Println(auth.GenerateCallerKey(addr, cfg.CallerKeySalt))
		return
	}

	// Connect to the store
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	metrics.InitPrometheusMetrics()

	// Log every committed event
	bus := events.NewBus()
	bus.Subscribe(events.AllEvents, func(e events.Event) {
		slog.Info("ledger event", "type", e.Type, "sequence", e.Sequence, "id", e.ID)
	})

	l, err := ledger.New(context.Background(), dbConn, ledger.Options{
		Owner:          cfg.Owner(),
		NumSeats:       cfg.NumSeats,
		ProposalPeriod: cfg.ProposalPeriod,
		Eligibility:    cfg.Eligibility,
		Bus:            bus,
		Metrics:        metrics.Ledger,
		Logger:         slog.Default(),
	})
	if err != nil {
		slog.Error("ledger initialization failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Ledger ready", "eligibility", l.Eligibility())

	// Create router
	mux := router.NewRouter(l, cfg)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
