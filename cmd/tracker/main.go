// Command tracker follows the live position of a delivery driver through the
// dispatch API.
//
//	tracker watch -order 1001     follow one order on the console
//	tracker probe -url URL        poll a tracking URL directly
//	tracker serve                 run the control API and order discovery
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yabalash/driver-tracker/internal/api"
	"github.com/yabalash/driver-tracker/internal/core/domain"
	"github.com/yabalash/driver-tracker/internal/core/ports"
	"github.com/yabalash/driver-tracker/internal/core/service"
	"github.com/yabalash/driver-tracker/internal/infrastructure/config"
	"github.com/yabalash/driver-tracker/internal/infrastructure/report"
	"github.com/yabalash/driver-tracker/internal/infrastructure/sessions"
	"github.com/yabalash/driver-tracker/internal/jobs"
	"github.com/yabalash/driver-tracker/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func usage() {
	fmt.Fprintf(os.Stderr, `usage: tracker <command> [flags]

commands:
  watch   -order N [-interval D] [-max-polls N]   follow one order until interrupted
  probe   -url U [-count N] [-interval D]         poll a tracking URL a fixed number of times
  serve                                          run the control API and order discovery
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Init(logger.Options{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty && !cfg.IsProduction(),
		Caller: !cfg.IsProduction(),
	})

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "watch":
		err = runWatch(ctx, cfg, args)
	case "probe":
		err = runProbe(ctx, cfg, args)
	case "serve":
		err = runServe(ctx, cfg, args)
	case "help", "-h", "--help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Error().Err(err).Str("command", cmd).Msg("tracker failed")
		os.Exit(1)
	}
}

func runWatch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	order := fs.String("order", "", "order number to follow")
	interval := fs.Duration("interval", cfg.Poll.Interval, "delay between polls")
	maxPolls := fs.Int("max-polls", cfg.Poll.MaxPolls, "stop after N polls (0 = until interrupted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *order == "" && fs.NArg() > 0 {
		*order = fs.Arg(0)
	}
	if *order == "" {
		fs.Usage()
		return errors.New("watch: -order is required")
	}

	log := logger.Component("watch")
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close(log)

	tracker, err := newTracker(cfg, service.PollerConfig{Interval: *interval, MaxPolls: *maxPolls}, newOrderClient(cfg), b)
	if err != nil {
		return err
	}

	log.Info().Str("order", *order).Dur("interval", *interval).Msg("tracking driver location, press Ctrl+C to stop")
	if err := tracker.Track(ctx, *order); err != nil {
		return err
	}
	log.Info().Str("order", *order).Msg("tracking stopped")
	return nil
}

// runProbe polls a tracking URL directly, without the order API. The URL may
// be the customer-facing link or the API endpoint itself.
func runProbe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	rawURL := fs.String("url", "", "tracking URL as issued to the customer")
	count := fs.Int("count", 1, "number of polls")
	interval := fs.Duration("interval", cfg.Poll.Interval, "delay between polls")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *rawURL == "" {
		fs.Usage()
		return errors.New("probe: -url is required")
	}
	if *count < 1 {
		return errors.New("probe: -count must be at least 1")
	}

	endpoint := domain.TrackingAPIURL(*rawURL)
	log := logger.Component("probe")
	log.Info().Str("tracking_url", *rawURL).Str("endpoint", endpoint).Msg("probing tracking endpoint")

	var failures int
	sinks := report.NewFanout(
		report.NewLogReporter(logger.Component("report")),
		report.NewMetricsReporter(),
	)
	counting := func(ctx context.Context, obs domain.Observation) error {
		if obs.Outcome == domain.OutcomeFailed {
			failures++
		}
		return sinks.Report(ctx, obs)
	}

	poller, err := service.NewLocationPoller(
		newDispatchClient(cfg),
		ports.ReporterFunc(counting),
		service.PollerConfig{Interval: *interval, MaxPolls: *count},
		logger.Component("poller"),
	)
	if err != nil {
		return err
	}

	if err := poller.Run(ctx, service.NewTrackingSession("probe", endpoint)); err != nil {
		return err
	}
	if failures == *count {
		return fmt.Errorf("probe: all %d polls failed", failures)
	}
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fs.String("port", cfg.Port, "control API port")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("serve: JWT_SECRET is required")
	}

	log := logger.Component("serve")
	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close(log)

	directory := newOrderClient(cfg)
	tracker, err := newTracker(cfg, service.PollerConfig{Interval: cfg.Poll.Interval, MaxPolls: cfg.Poll.MaxPolls}, directory, b)
	if err != nil {
		return err
	}

	manager := sessions.NewManager(ctx, tracker, logger.Component("sessions"))
	defer manager.Shutdown()

	if cfg.Discovery.Enabled && cfg.Dispatch.HasCredentials() {
		job := jobs.NewDiscoveryJob(directory, manager, cfg.Dispatch.Timeout*2, logger.Get())
		if err := job.Start(cfg.Discovery.Schedule); err != nil {
			return fmt.Errorf("discovery schedule: %w", err)
		}
		defer job.Stop()
	} else if cfg.Discovery.Enabled {
		log.Warn().Msg("order discovery disabled: DISPATCH_EMAIL and DISPATCH_PASSWORD are not set")
	}

	e := api.NewRouter(api.Deps{
		Sessions:  manager,
		Snapshots: b.snapshotStore(),
		History:   b.observationHistory(),
		Checks:    b.checks(),
		JWTSecret: cfg.JWTSecret,
		Log:       logger.Component("api"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", *port).Msg("control API listening")
		if err := e.Start(":" + *port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
