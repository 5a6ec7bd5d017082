package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-auth-client/authapi"
	"github.com/jrsteele09/go-auth-client/gate"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/internal/logging"
	"github.com/jrsteele09/go-auth-client/session"
	"github.com/jrsteele09/go-auth-client/tokenstore/filestore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "authctl: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load()
	if err != nil {
		return err
	}
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		displayAppname(c.GetAppName())
		printUsage(os.Stdout)
		return nil
	}

	logger := logging.New(c.GetEnv(), c.GetAppName(), c.GetLogLevel())
	logging.SetGlobal(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, reg, err := newApp(c, logger)
	if err != nil {
		return err
	}
	defer logMetrics(logger, reg)

	if _, err := a.manager.Restore(ctx); err != nil {
		return err
	}
	return a.dispatch(ctx, args[0], args[1:])
}

func newApp(c config.Config, logger zerolog.Logger) (*app, *prometheus.Registry, error) {
	store, err := openStore(c, logger)
	if err != nil {
		return nil, nil, err
	}

	reg := prometheus.NewRegistry()
	metrics, err := session.NewMetrics(reg)
	if err != nil {
		return nil, nil, err
	}

	api := authapi.NewHTTPClient(c.GetBaseURL(), authapi.WithTimeout(c.GetHTTPTimeout()))
	manager, err := session.NewManager(api, store,
		session.WithLogger(logger),
		session.WithMetrics(metrics),
		session.WithRestoreTimeout(c.GetRestoreTimeout()),
		session.WithLoginLimiter(rate.NewLimiter(rate.Limit(c.GetLoginRate()), c.GetLoginBurst())),
	)
	if err != nil {
		return nil, nil, err
	}

	a := newCLIApp(manager, c, os.Stdout, logger)
	a.watchRoutes()
	return a, reg, nil
}

// openStore treats an unreadable token file as "no session": it is moved
// aside with a warning and the CLI starts signed out.
func openStore(c config.StoreConfig, logger zerolog.Logger) (*filestore.Store, error) {
	store, err := filestore.OpenOrReset(c.GetStorePath(), c.GetStorePassphrase())
	if store == nil {
		return nil, fmt.Errorf("open token store %s (set TOKEN_STORE_PASSPHRASE): %w", c.GetStorePath(), err)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("token store unreadable, starting signed out")
	}
	return store, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

// logMetrics writes the session operation counters at debug level.
func logMetrics(logger zerolog.Logger, reg prometheus.Gatherer) {
	families, err := reg.Gather()
	if err != nil {
		logger.Debug().Err(err).Msg("gather metrics")
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			ev := logger.Debug().Str("metric", mf.GetName())
			for _, l := range m.GetLabel() {
				ev = ev.Str(l.GetName(), l.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				ev = ev.Float64("value", m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				ev = ev.Float64("value", m.GetGauge().GetValue())
			}
			ev.Msg("metric")
		}
	}
}

// routeLogger is the gate navigator of a terminal session: it only reports
// where an interactive app would go next.
type routeLogger struct {
	current string
	log     zerolog.Logger
}

func (r *routeLogger) Current() string {
	return r.current
}

func (r *routeLogger) Replace(route string) {
	r.log.Debug().Str("from", r.current).Str("to", route).Msg("route")
	r.current = route
}

var _ gate.Navigator = (*routeLogger)(nil)
