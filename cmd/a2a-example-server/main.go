// Command a2a-example-server runs a scripted A2A agent over both the
// JSON-RPC 2.0 and HTTP+REST transports on one listener, the way
// server/cmd/a2a-example-server/main.go wires an in-memory task store
// and a scenario-based agent handler into server.Start in the teacher
// codebase.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/cmd/a2a-example-server/scenario"
	"github.com/gate4ai/a2a/server"
	"github.com/gate4ai/a2a/server/config"
	"github.com/gate4ai/a2a/server/pushsender"
	"github.com/gate4ai/a2a/server/pushstore"
	"github.com/gate4ai/a2a/server/storage/postgres"
	"github.com/gate4ai/a2a/server/taskstore"
	"github.com/gate4ai/a2a/transport/jsonrpc"
	"github.com/gate4ai/a2a/transport/rest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

func main() {
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := loggerConfig.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	listenAddr := flag.String("listen", ":41241", "address and port to listen on")
	agentURL := flag.String("agent-url", "", "externally reachable base URL to advertise in the agent card (defaults to http://localhost<listen>)")
	configPath := flag.String("config", "", "path to a YAML config file; if unset, configuration is read from environment variables")
	postgresDSN := flag.String("postgres-dsn", "", "Postgres connection string for task/push-config storage; if unset, an in-memory store is used")
	flag.Parse()

	cfg, closeConfig, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	defer closeConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if watchable, ok := cfg.(*config.YamlConfig); ok {
		if err := watchable.Watch(ctx); err != nil {
			logger.Warn("config hot-reload disabled", zap.Error(err))
		}
	}

	addr := *listenAddr
	if configured, err := cfg.ListenAddr(); err == nil && configured != "" {
		addr = configured
	}
	url := *agentURL
	if url == "" {
		url = fmt.Sprintf("http://localhost%s", addr)
	}

	card, err := cfg.AgentCard(url)
	if err != nil {
		logger.Fatal("failed to build agent card", zap.Error(err))
	}
	card.AdditionalInterfaces = []a2a.AgentInterface{
		{Transport: "JSONRPC", URL: url + "/"},
		{Transport: "HTTP+JSON", URL: url + "/v1"},
	}

	tasks, pushConfigs, closeStorage, err := buildStorage(ctx, *postgresDSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer closeStorage()

	rps, burst, err := cfg.PushNotificationRateLimit()
	if err != nil {
		logger.Fatal("failed to read push notification rate limit", zap.Error(err))
	}
	tokenHeader, err := cfg.PushNotificationTokenHeader()
	if err != nil {
		logger.Fatal("failed to read push notification token header", zap.Error(err))
	}
	senderOpts := []pushsender.Option{pushsender.WithLogger(logger)}
	if tokenHeader != "" {
		senderOpts = append(senderOpts, pushsender.WithTokenHeader(tokenHeader))
	}
	if rps > 0 {
		senderOpts = append(senderOpts, pushsender.WithRateLimit(rate.Limit(rps), burst))
	}
	sender := pushsender.New(pushConfigs, senderOpts...)

	executor := scenario.New(logger)
	handler := server.NewDefaultRequestHandler(card, executor, tasks,
		server.WithLogger(logger),
		server.WithPushNotifications(pushConfigs, sender),
	)

	userBuilder, err := buildUserBuilder(cfg)
	if err != nil {
		logger.Fatal("failed to configure authentication", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("/", jsonrpc.NewHandler(handler, jsonrpc.WithLogger(logger), jsonrpc.WithUserBuilder(userBuilder)))
	restHandler := rest.NewHandler(handler, rest.WithLogger(logger), rest.WithUserBuilder(userBuilder))
	restHandler.RegisterRoutes(mux)
	mux.HandleFunc("GET "+a2a.WellKnownAgentCardPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(card)
	})

	httpServer := &http.Server{Addr: addr, Handler: mux}
	errChan := make(chan error, 1)
	go func() {
		logger.Info("starting A2A example server", zap.String("address", addr), zap.String("url", url))
		errChan <- httpServer.ListenAndServe()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-signalCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listener error", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown did not complete in time", zap.Error(err))
	}
	cancel()
	logger.Info("server stopped")
}

// loadConfig picks YamlConfig when a path is given, EnvConfig otherwise,
// the way the teacher's own main.go picks NewInternalConfig for
// simplicity but leaves the YAML/database alternatives available.
func loadConfig(path string, logger *zap.Logger) (config.IConfig, func(), error) {
	if path == "" {
		cfg := config.NewEnvConfig()
		return cfg, func() { _ = cfg.Close() }, nil
	}
	cfg, err := config.NewYamlConfig(path, logger)
	if err != nil {
		return nil, func() {}, err
	}
	return cfg, func() { _ = cfg.Close() }, nil
}

// buildStorage wires Postgres-backed stores when dsn is set, falling
// back to the in-memory stores otherwise.
func buildStorage(ctx context.Context, dsn string) (taskstore.Store, pushstore.Store, func(), error) {
	if dsn == "" {
		return taskstore.NewInMemory(), pushstore.NewInMemory(), func() {}, nil
	}
	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, nil, func() {}, fmt.Errorf("connect to postgres: %w", err)
	}
	return postgres.NewTaskStore(db), postgres.NewPushConfigStore(db), func() { _ = db.Close() }, nil
}

// buildUserBuilder authenticates requests against the configured static
// API key hash via the Authorization: Bearer <key> header. With no key
// configured, every request is treated as anonymous.
func buildUserBuilder(cfg config.IConfig) (a2a.UserBuilder, error) {
	wantHash, err := cfg.AuthorizedAPIKeyHash()
	if err != nil {
		return nil, err
	}
	if wantHash == "" {
		return func(a2a.RequestMetadata) (a2a.User, error) {
			return a2a.AnonymousUser, nil
		}, nil
	}
	return func(meta a2a.RequestMetadata) (a2a.User, error) {
		auth := meta.Header("Authorization")
		const prefix = "Bearer "
		if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
			return a2a.AnonymousUser, nil
		}
		key := auth[len(prefix):]
		if config.HashAPIKey(key) != wantHash {
			return a2a.AnonymousUser, nil
		}
		return apiKeyUser{}, nil
	}, nil
}

type apiKeyUser struct{}

func (apiKeyUser) IsAuthenticated() bool { return true }
func (apiKeyUser) UserName() string      { return "api-key" }
