package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/radar/internal/debuglog"
	"github.com/pders01/radar/internal/httpserver"
	"github.com/pders01/radar/internal/media"
	"github.com/pders01/radar/internal/radar"
	"github.com/pders01/radar/internal/search"
)

var (
	eventsDate  string
	eventsJSON  bool
	allTime     bool
	searchLimit int
	searchDate  string
	snapLimit   int
	serveAddr   string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List aggregated events grouped by day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if eventsDate != "" {
			if _, err := time.Parse(radar.DateLayout, eventsDate); err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
		}

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		snap, err := a.cache.Get(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if eventsJSON {
			events := snap.Events
			if eventsDate != "" {
				events = snap.On(eventsDate)
			}
			if events == nil {
				events = []radar.Event{}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(events)
		}

		renderEvents(out, snap, eventsDate)
		renderSourceErrors(cmd.ErrOrStderr(), snap.Sources)
		return nil
	},
}

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List companies by first appearance, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if allTime {
			records, err := a.store.Companies()
			if err != nil {
				return err
			}
			firstSeen := make(radar.CompanyFirstSeen, len(records))
			order := make([]string, 0, len(records))
			for _, r := range records {
				firstSeen[r.Name] = r.FirstSeen
				order = append(order, r.Name)
			}
			renderCompanies(cmd.OutOrStdout(), order, firstSeen)
			return nil
		}

		snap, err := a.cache.Get(cmd.Context())
		if err != nil {
			return err
		}
		renderCompanies(cmd.OutOrStdout(), snap.Companies(), snap.History)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over the current events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if searchDate != "" {
			if _, err := time.Parse(radar.DateLayout, searchDate); err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}
		}

		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		// populates the index through the cache listeners
		if _, err := a.cache.Get(cmd.Context()); err != nil {
			return err
		}

		var results []*search.Result
		if searchDate != "" {
			results, err = a.searcher.SearchOn(args[0], searchDate, searchLimit)
		} else {
			results, err = a.searcher.Search(args[0], searchLimit)
		}
		if err != nil {
			return err
		}
		renderResults(cmd.OutOrStdout(), args[0], results)
		return nil
	},
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored aggregation cycles, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		infos, err := a.store.Snapshots(snapLimit)
		if err != nil {
			return err
		}
		renderSnapshots(cmd.OutOrStdout(), infos)
		return nil
	},
}

// launch is replaced in tests.
var launch = func(command, url string) error {
	return media.NewLauncher(command).Open(url)
}

var openCmd = &cobra.Command{
	Use:   "open <query>",
	Short: "Open the best matching event in the browser",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.cache.Get(cmd.Context()); err != nil {
			return err
		}
		results, err := a.searcher.Search(args[0], 1)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return fmt.Errorf("no event matches %q", args[0])
		}

		e := results[0].Event
		fmt.Fprintf(cmd.OutOrStdout(), "Opening %s\n", e.URL)
		return launch(a.cfg.Open.Command, e.URL)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve events over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		if serveAddr != "" {
			a.cfg.Server.Addr = serveAddr
		}
		if a.cfg.Log.File == "" && debuglog.GetLevel() == debuglog.LevelOff {
			debuglog.SetOutput(debuglog.LevelInfo, os.Stderr)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// warm the cache so the first request does not wait on every feed
		go func() {
			if _, err := a.cache.Get(ctx); err != nil && ctx.Err() == nil {
				debuglog.Warnf("initial aggregation: %v", err)
			}
		}()

		server := httpserver.NewServer(a.cfg, a.cache, a.searcher)
		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		debuglog.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsDate, "date", "", "Only show events published on this day (YYYY-MM-DD)")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Print events as JSON")
	companiesCmd.Flags().BoolVar(&allTime, "all", false, "List the persistent first-seen ledger instead of the current cycle")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum number of results")
	searchCmd.Flags().StringVar(&searchDate, "date", "", "Only match events published on this day (YYYY-MM-DD)")
	snapshotsCmd.Flags().IntVarP(&snapLimit, "limit", "n", 10, "Maximum number of cycles (0 for all)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}
