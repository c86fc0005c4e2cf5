package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	consolenotify "github.com/bnema/fasttrack-cli/internal/adapters/notify/console"
	"github.com/bnema/fasttrack-cli/internal/adapters/notify/natsbus"
	"github.com/bnema/fasttrack-cli/internal/adapters/remote/httpapi"
	statusadapter "github.com/bnema/fasttrack-cli/internal/adapters/render/status"
	tomlrepo "github.com/bnema/fasttrack-cli/internal/adapters/repo/toml"
	chainstore "github.com/bnema/fasttrack-cli/internal/adapters/secrets/chain"
	"github.com/bnema/fasttrack-cli/internal/application"
	"github.com/bnema/fasttrack-cli/internal/config"
	"github.com/bnema/fasttrack-cli/internal/domain"
	"github.com/bnema/fasttrack-cli/internal/metrics"
	"github.com/bnema/fasttrack-cli/internal/ports"
)

type app struct {
	cfg            config.Config
	homeDir        string
	logger         *slog.Logger
	logLevel       *slog.LevelVar
	stderr         *switchWriter
	registry       *prometheus.Registry
	recorder       metrics.Recorder
	clock          ports.Clock
	secretStore    ports.SecretStore
	gateway        *application.NotificationGateway
	session        *application.SessionState
	hydration      *application.HydrationService
	statusRenderer func(application.FastStatusView, statusadapter.RenderOptions) (string, error)
	closers        []func()
}

func wireApp() (*app, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	homeDir, err := config.HomeDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	cfg, err := config.Load(v, homeDir)
	if err != nil {
		return nil, err
	}

	stderr := &switchWriter{w: os.Stderr}
	logLevel := &slog.LevelVar{}
	logLevel.Set(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel}))

	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)
	clock := ports.SystemClock{}

	secretStore, err := chainstore.NewPassFirstWithFileFallback(cfg.SecretsDir)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	hydrationRepo, err := tomlrepo.NewHydrationRepository(v, clock)
	if err != nil {
		return nil, fmt.Errorf("wire hydration repository: %w", err)
	}

	a := &app{
		cfg:            cfg,
		homeDir:        homeDir,
		logger:         logger,
		logLevel:       logLevel,
		stderr:         stderr,
		registry:       registry,
		recorder:       recorder,
		clock:          clock,
		secretStore:    secretStore,
		statusRenderer: statusadapter.Render,
	}

	notifier, closeNotifier := a.newNotifier()
	if closeNotifier != nil {
		a.closers = append(a.closers, closeNotifier)
	}

	remote := httpapi.Client{
		BaseURL:        cfg.API.BaseURL,
		HTTPClient:     http.DefaultClient,
		RequestTimeout: cfg.API.Timeout,
		Token:          a.apiToken,
	}

	a.gateway = application.NewNotificationGateway(notifier, a.options()...)
	a.session = application.NewSessionState(remote, a.gateway, clock, application.SessionConfig{
		DefaultProtocol: cfg.Fast.DefaultProtocol,
		StaleAfter:      cfg.Fast.StaleAfter,
	}, a.options()...)
	a.hydration = application.NewHydrationService(hydrationRepo, clock, cfg.Hydration.GoalML)

	return a, nil
}

func (a *app) options() []application.Option {
	return []application.Option{
		application.WithLogger(a.logger),
		application.WithRecorder(a.recorder),
	}
}

// newNotifier returns a nil notifier for the "none" backend; the gateway then
// drops every notification.
func (a *app) newNotifier() (ports.Notifier, func()) {
	switch a.cfg.Notify.Backend {
	case config.NotifyNATS:
		publisher := natsbus.NewLazyPublisher(a.cfg.Notify.NATSURL, a.cfg.Notify.Subject, a.clock)
		return publisher, publisher.Close
	case config.NotifyNone:
		return nil, nil
	default:
		return consolenotify.New(a.stderr, a.clock), nil
	}
}

// apiToken prefers api.token from config or FT_API_TOKEN, then the secret store.
func (a *app) apiToken(ctx context.Context) (string, error) {
	if a.cfg.API.Token != "" {
		return a.cfg.API.Token, nil
	}

	token, err := a.secretStore.Get(ctx, a.cfg.API.TokenKey)
	if errors.Is(err, domain.ErrSecretNotFound) {
		return "", nil
	}
	return token, err
}

// configPath is the file protocol changes are written to.
func (a *app) configPath() string {
	if a.cfg.File != "" {
		return a.cfg.File
	}
	return config.FilePath(a.homeDir)
}

func (a *app) close() {
	for _, closeFn := range a.closers {
		closeFn()
	}
	a.closers = nil
}

// switchWriter lets commands point the logger and console notifier at the
// cobra error stream after wiring.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}
