// Command lumen-demo runs a store with the middleware pipeline and the
// devtools inspector attached, mutating state on a timer. It exists to
// exercise the library end to end and to give the inspector something to
// look at during development.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/lumen-dev/lumen/pkg/devtools"
	"github.com/lumen-dev/lumen/pkg/middleware"
	"github.com/lumen-dev/lumen/pkg/store"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	var (
		addr string
		tick time.Duration
	)

	rootCmd := &cobra.Command{
		Use:   "lumen-demo",
		Short: "Run a demo Lumen store with devtools attached",
		Long: `lumen-demo runs an in-process Lumen store that updates itself on a
timer and serves the devtools inspector:

  GET /state    current state as JSON
  GET /stream   WebSocket feed of change events
  GET /metrics  Prometheus metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(addr, tick)
		},
	}

	rootCmd.Flags().StringVar(&addr, "addr", ":6360", "devtools listen address")
	rootCmd.Flags().DurationVar(&tick, "tick", time.Second, "state update interval")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lumen-demo %s (%s)\n", version, commit)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(addr string, tick time.Duration) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s := store.New(store.State{
		"count":      0,
		"started_at": time.Now().UTC().Format(time.RFC3339),
	})

	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(middleware.WithRegistry(reg))

	pipeline := middleware.ApplyOptions(s, middleware.Options{Logger: logger},
		metrics.Middleware(),
		metrics.Observe("logging", middleware.Logging(logger)),
	)
	defer pipeline.Close()

	dt := devtools.New(s,
		devtools.WithLogger(logger),
		devtools.WithMetricsRegistry(reg),
	)
	defer dt.Close()

	srv := &http.Server{Addr: addr, Handler: dt.Handler()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Set(store.Updater(func(cur store.State) store.Partial {
					return store.Partial{
						"count":      cur["count"].(int) + 1,
						"updated_at": now.UTC().Format(time.RFC3339),
					}
				}))
			}
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("devtools listening", "addr", addr, "tick", tick.String())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	pipeline.Wait()
	return nil
}
