package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/skins-market-client/credentials"
	"github.com/jrsteele09/skins-market-client/credentials/filestore"
	"github.com/jrsteele09/skins-market-client/credentials/redisstore"
	credentialfakerepo "github.com/jrsteele09/skins-market-client/credentials/repofake"
	"github.com/jrsteele09/skins-market-client/gateway"
	"github.com/jrsteele09/skins-market-client/internal/config"
	"github.com/jrsteele09/skins-market-client/internal/logging"
	"github.com/jrsteele09/skins-market-client/market"
	"github.com/jrsteele09/skins-market-client/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			code = 2
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	a, closeApp, err := newApp(ctx, cfg, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer closeApp()

	if err := a.dispatch(ctx, args); err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

type app struct {
	cfg     config.Config
	logger  zerolog.Logger
	holder  *credentials.Holder
	client  *market.Client
	session *session.Manager
	out     io.Writer
	errOut  io.Writer
}

// newApp wires the credential store, gateway, client and session for cfg, then restores
// any persisted session.
func newApp(ctx context.Context, cfg config.Config, stdout, stderr io.Writer, options ...gateway.Option) (*app, func(), error) {
	logger := logging.New(stderr, cfg.GetEnv(), cfg.GetLogLevel())

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	holder := credentials.NewHolder(store)
	if _, err := holder.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("stored credential unreadable, starting signed out")
	}

	gwOptions := []gateway.Option{
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.GetHTTPTimeout()}),
		gateway.WithTokenSource(holder),
		gateway.WithLogger(logger.With().Str("component", "gateway").Logger()),
		gateway.WithDedupWindow(cfg.GetLogDedupWindow()),
	}
	gw := gateway.New(cfg.GetAPIBaseURL(), append(gwOptions, options...)...)
	client := market.New(gw)
	manager := session.NewManager(holder, client, session.WithLogger(logger.With().Str("component", "session").Logger()))

	gw.SetUnauthorizedObserver(manager.HandleUnauthorized)
	gw.SetFailureObserver(func(f gateway.Failure) {
		fmt.Fprintf(stderr, "Error: %s%s\n", f.Message, statusSuffix(f.Status))
	})

	if err := manager.Bootstrap(ctx); err != nil {
		logger.Debug().Err(err).Msg("session not restored")
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		holder:  holder,
		client:  client,
		session: manager,
		out:     stdout,
		errOut:  stderr,
	}
	return a, closeStore, nil
}

func openStore(cfg config.Config) (credentials.Store, func(), error) {
	switch cfg.GetCredentialStore() {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
		return redisstore.New(rdb, cfg.GetRedisKeyPrefix()), func() { _ = rdb.Close() }, nil
	case config.StoreMemory:
		return credentialfakerepo.NewFakeStore(), func() {}, nil
	default:
		store, err := filestore.New(cfg.GetDataFolder())
		if err != nil {
			return nil, nil, fmt.Errorf("open credential store: %w", err)
		}
		return store, func() {}, nil
	}
}

// reportError prints errors the failure observer has not already shown.
func reportError(w io.Writer, err error) {
	if errors.Is(err, errUsage) {
		return
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, "Error: interrupted")
		return
	}
	if f, ok := gateway.AsFailure(err); ok {
		if !f.Observed {
			fmt.Fprintf(w, "Error: %s%s\n", f.Message, statusSuffix(f.Status))
		}
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func statusSuffix(status int) string {
	if status == 0 {
		return ""
	}
	return fmt.Sprintf(" (status %d)", status)
}

func displayAppname(w io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(w, myFigure.String())
}
