package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/strataconf/strata/pkg/events"
	"github.com/strataconf/strata/pkg/metrics"
	"github.com/strataconf/strata/pkg/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch namespace sources and print change events",
	Long: `Watch the file sources of every registered namespace. On change the
resolver cache is invalidated and the event is printed. Press Ctrl+C to stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		broker := events.NewBroker()
		broker.Start()
		defer broker.Stop()

		res, err := buildResolver()
		if err != nil {
			return err
		}
		defer res.Close()

		watcher, err := watch.NewWatcher(res, broker)
		if err != nil {
			return err
		}
		for _, name := range res.Namespaces() {
			if err := watcher.WatchNamespace(name); err != nil {
				return err
			}
		}

		sub := broker.Subscribe()
		watcher.Start()
		defer watcher.Stop()

		fmt.Println("Watching namespace sources. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		for {
			select {
			case event := <-sub:
				fmt.Printf("%s  %s  namespace=%s\n",
					event.Timestamp.Format("15:04:05"),
					event.Type,
					event.Metadata["namespace"],
				)
			case <-sigCh:
				fmt.Println("\nStopping.")
				return nil
			}
		}
	},
}

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Expose Prometheus metrics and health endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		res, err := buildResolver()
		if err != nil {
			return err
		}
		defer res.Close()

		// Prime health components so /healthz reflects the topology
		for _, name := range res.Namespaces() {
			if _, err := res.Get(name); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: namespace %s failed to resolve: %v\n", name, err)
			}
		}

		metrics.SetVersion(Version)

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.HandleFunc("/healthz", metrics.HealthHandler())
		mux.HandleFunc("/livez", metrics.LivenessHandler())

		server := &http.Server{Addr: addr, Handler: mux}
		errCh := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		fmt.Printf("Serving metrics on %s. Press Ctrl+C to stop.\n", addr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
		case err := <-errCh:
			return fmt.Errorf("metrics server error: %v", err)
		}

		return server.Close()
	},
}

func init() {
	serveMetricsCmd.Flags().String("addr", ":9464", "Listen address for metrics and health endpoints")
}
