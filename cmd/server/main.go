// Command server starts the dataflow execution engine's HTTP API server.
//
// Usage:
//
//	server [flags]
//
// Flags:
//
//	-addr string
//	    Server address (default ":8080")
//	-read-timeout duration
//	    HTTP read timeout (default 30s)
//	-write-timeout duration
//	    HTTP write timeout (default 30s)
//	-max-execution-time duration
//	    Maximum per-run execution time (default 5m)
//	-max-node-executions int
//	    Stored in Config.MaxNodeExecutions; neither the server nor the
//	    engine reads it (default 0)
//
// Example:
//
//	# Start server on default port
//	server
//
//	# Start server on custom port with a 30s per-run limit
//	server -addr :9090 -max-execution-time 30s
//
// The server exposes the following endpoints:
//
//	POST   /api/v1/pipeline/execute   - Build and run a pipeline, streaming events as SSE
//	POST   /api/v1/pipeline/validate  - Build and validate a pipeline without running it
//	GET    /api/v1/components         - List registered components
//	GET    /health                    - Health check
//	GET    /health/live               - Liveness probe
//	GET    /health/ready               - Readiness probe
//	GET    /metrics                   - Prometheus metrics
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ragnarok-labs/dataflow/pkg/component"
	"github.com/ragnarok-labs/dataflow/pkg/config"
	"github.com/ragnarok-labs/dataflow/pkg/demo"
	"github.com/ragnarok-labs/dataflow/pkg/server"
)

func main() {
	addr := flag.String("addr", ":8080", "Server address")
	readTimeout := flag.Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	maxExecutionTime := flag.Duration("max-execution-time", 5*time.Minute, "Maximum per-run execution time")
	maxNodeExecutions := flag.Int("max-node-executions", 0, "Stored in Config.MaxNodeExecutions; not enforced by the server or engine")
	flag.Parse()

	cfg := config.Default()
	cfg.Address = *addr
	cfg.ReadTimeout = *readTimeout
	cfg.WriteTimeout = *writeTimeout
	cfg.MaxExecutionTime = *maxExecutionTime
	cfg.MaxNodeExecutions = *maxNodeExecutions

	registry := component.NewRegistry()
	demo.RegisterDefaultsWithConfig(registry, cfg)

	srv, err := server.New(cfg, registry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create server: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		fmt.Printf("Starting dataflow engine server on %s\n", *addr)
		fmt.Printf("Health check:     http://localhost%s/health\n", *addr)
		fmt.Printf("Liveness probe:   http://localhost%s/health/live\n", *addr)
		fmt.Printf("Readiness probe:  http://localhost%s/health/ready\n", *addr)
		fmt.Printf("Metrics:          http://localhost%s/metrics\n", *addr)
		fmt.Printf("Components:       http://localhost%s/api/v1/components\n", *addr)
		fmt.Printf("Execute endpoint: http://localhost%s/api/v1/pipeline/execute\n", *addr)
		fmt.Println("\nPress Ctrl+C to shutdown")

		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)
		fmt.Println("Shutting down gracefully...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Server stopped")
	}
}
