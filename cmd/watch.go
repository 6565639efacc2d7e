package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/zjrosen/entityreg/internal/log"
	"github.com/zjrosen/entityreg/internal/metrics"
	"github.com/zjrosen/entityreg/internal/presentation"
	"github.com/zjrosen/entityreg/internal/pubsub"
)

var watchBoot bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch mapping files and stream registry events",
	Long: `Watch every mapping directory known to the managers and their chains.
When a mapping file changes, cached metadata is dropped so the next lookup
reads the new definition.

Registry events (manager builds, boots, mapping changes, compilations) are
printed as one JSON object per line. When metrics are enabled and
metrics.address is set, Prometheus metrics are served on /metrics.

Examples:
  entityreg watch
  entityreg watch --boot | jq -c 'select(.type == "mappings.changed")'`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	formatter := presentation.NewFormatter(os.Stdout)
	events := rt.service.Events().Subscribe(ctx)
	listenDone := make(chan error, 1)
	go func() {
		listenDone <- pubsub.Listen(ctx, events, func(ev pubsub.Event[pubsub.RegistryEvent]) {
			if err := formatter.FormatEvent(presentation.FromEvent(ev)); err != nil {
				log.ErrorErr(log.CatWatcher, "Failed to write event", err, "type", ev.Type)
			}
		})
	}()

	if rt.metrics != nil && cfg.Metrics.Address != "" {
		stop := serveMetrics(cfg.Metrics.Address, rt.metrics)
		defer stop()
	}

	if err := rt.service.RegisterConfigured(ctx); err != nil {
		return err
	}
	if watchBoot {
		if _, err := rt.service.Boot(ctx); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "Watching %d mapping directories, press Ctrl+C to stop\n", len(rt.service.MappingDirs()))
	if err := rt.service.WatchMappings(ctx); err != nil {
		return err
	}

	cancel()
	if err := <-listenDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// serveMetrics serves g on addr until the returned stop function is called.
func serveMetrics(addr string, g prometheus.Gatherer) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info(log.CatConfig, "Serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorErr(log.CatConfig, "Metrics server failed", err, "addr", addr)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

func init() {
	watchCmd.Flags().BoolVar(&watchBoot, "boot", false, "Boot the configured extensions before watching")
	rootCmd.AddCommand(watchCmd)
}
