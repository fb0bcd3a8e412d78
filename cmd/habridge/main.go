// cmd/habridge/main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ha_api "ha-bridge/internal/api/http"
	"ha-bridge/internal/config"
	"ha-bridge/internal/consumer"
	"ha-bridge/internal/domain"
	"ha-bridge/internal/health"
	"ha-bridge/internal/infra/etcd"
	"ha-bridge/internal/infra/native"
	"ha-bridge/internal/mailbox"
	"ha-bridge/internal/tracing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. Initialize logger and tracer
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	tracerShutdown, err := tracing.InitTracer("ha-bridge")
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(context.Background()); err != nil {
			log.Printf("failed to shutdown tracer: %v", err)
		}
	}()

	log.Println("Starting HA bridge daemon...")

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	nodeID := uuid.New().String()
	nodeFid, err := domain.ParseFid(cfg.NodeFid)
	if err != nil {
		log.Fatalf("Failed to parse node fid: %v", err)
	}
	log.Printf("Node ID: %s, fid: %s", nodeID, nodeFid)

	// 3. Create root context for lifecycle management
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Setup graceful shutdown
	setupGracefulShutdown(cancel)

	// 5. Init etcd client
	etcdClient, err := etcd.NewClient(cfg.EtcdEndpoints, cfg.EtcdTimeout)
	if err != nil {
		log.Fatalf("Failed to create etcd client: %v", err)
	}
	defer etcdClient.Close()
	log.Println("Connected to etcd.")

	// 6. Instantiate downstream collaborators
	coordination := etcd.NewProcessStatusClient(etcdClient, logger)
	eventLog := etcd.NewEventLogPublisher(etcdClient, logger)
	link := etcd.NewHALink(etcdClient, logger)
	nativeRuntime := native.NewRuntime(logger)

	// 7. Mailbox and the single consumer loop
	mbox := mailbox.New()
	cons := consumer.New(consumer.Options{
		Mailbox:           mbox,
		Runtime:           nativeRuntime,
		Link:              link,
		Coordination:      coordination,
		EventLog:          eventLog,
		Logger:            logger,
		PollInterval:      cfg.PollInterval,
		RetryInterval:     cfg.RetryInterval,
		RepairStatusDelay: cfg.RepairStatusDelay,
	})
	go func() {
		if err := cons.Run(); err != nil {
			log.Fatalf("Consumer loop stopped with error: %v", err)
		}
	}()

	// 8. Periodic local-node health broadcast
	broadcaster := health.NewBroadcaster(mbox, nodeFid, cfg.HealthBroadcastSpec, logger)
	if err := broadcaster.Start(); err != nil {
		log.Fatalf("Failed to start health broadcaster: %v", err)
	}

	// 9. Register routes and metrics endpoint
	haHandler := ha_api.NewHAHandler(mbox, logger)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	haHandler.RegisterRoutes(mux)

	// 10. Start HTTP API server
	log.Printf("Starting HTTP API server on %s", cfg.HttpListenAddr)
	server := &http.Server{
		Addr:    cfg.HttpListenAddr,
		Handler: mux,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 11. Block until shutdown
	<-rootCtx.Done()
	log.Println("Shutting down application gracefully...")

	// Stop the producers first so no new work arrives, then let the
	// consumer drain to its stopping point.
	broadcaster.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown failed: %v", err)
	}

	cons.Stop()
	<-cons.Done()

	log.Println("Application shut down.")
}

func setupGracefulShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v. Initiating graceful shutdown...", sig)
		cancel()
	}()
}
