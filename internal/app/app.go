package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"garden-brawl/server/internal/maps"
	servernet "garden-brawl/server/internal/net"
	"garden-brawl/server/internal/protocol"
	"garden-brawl/server/internal/session"
	"garden-brawl/server/logging"
	loggingsinks "garden-brawl/server/logging/sinks"
)

// Config carries the boot parameters. Every field has an env-driven default
// so a bare `server` binary comes up ready for local play.
type Config struct {
	Addr       string
	SessionID  string
	HostUserID string
	Keys       map[string]string
	MapFile    string
	LogSink    string
	LogLevel   string
	Logger     *log.Logger
}

// ConfigFromEnv reads the boot parameters from the environment.
//
//	LISTEN_ADDR    address to serve on              (default :8080)
//	SESSION_ID     id of the bootstrapped session   (default local)
//	HOST_USER_ID   user id of the session host      (default host)
//	CONNECT_KEYS   comma list of user:key pairs     (default host:dev-key)
//	MAP_FILE       optional map descriptor path
//	LOG_SINK       console or json                  (default console)
//	LOG_LEVEL      debug, info, warn or error       (default debug)
func ConfigFromEnv() Config {
	cfg := Config{
		Addr:       envOr("LISTEN_ADDR", ":8080"),
		SessionID:  envOr("SESSION_ID", "local"),
		HostUserID: envOr("HOST_USER_ID", "host"),
		MapFile:    os.Getenv("MAP_FILE"),
		LogSink:    envOr("LOG_SINK", "console"),
		LogLevel:   envOr("LOG_LEVEL", "debug"),
		Keys:       map[string]string{},
	}
	raw := envOr("CONNECT_KEYS", "host:dev-key")
	for _, pair := range strings.Split(raw, ",") {
		user, key, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || user == "" || key == "" {
			continue
		}
		cfg.Keys[user] = key
	}
	return cfg
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// Run boots the logging router, the session and the HTTP server, then blocks
// until the listener fails or the context is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	logConfig := logging.DefaultConfig()
	logConfig.MinimumSeverity = parseSeverity(cfg.LogLevel)
	if raw := os.Getenv("LOG_BUFFER"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			logConfig.BufferSize = value
		} else {
			logger.Printf("invalid LOG_BUFFER=%q: %v", raw, err)
		}
	}

	var sink logging.Sink
	switch cfg.LogSink {
	case "json":
		sink = loggingsinks.NewJSONSink(os.Stdout)
	default:
		sink = loggingsinks.NewConsoleSink(os.Stdout)
	}

	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, []logging.NamedSink{
		{Name: cfg.LogSink, Sink: sink},
	})
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	var worldMap *maps.Map
	if cfg.MapFile != "" {
		worldMap, err = maps.LoadFile(cfg.MapFile)
		if err != nil {
			return fmt.Errorf("load map %s: %w", cfg.MapFile, err)
		}
	}

	if _, ok := cfg.Keys[cfg.HostUserID]; !ok {
		return fmt.Errorf("host %q has no connect key", cfg.HostUserID)
	}

	sess := session.New(session.Config{
		ID:         cfg.SessionID,
		GameType:   protocol.GameTypeBrawl,
		HostUserID: cfg.HostUserID,
		Keys:       cfg.Keys,
		Map:        worldMap,
		Publisher:  router,
	})

	resolve := func(id string) (*session.Session, bool) {
		if id == cfg.SessionID {
			return sess, true
		}
		return nil, false
	}
	diagnostics := func() []session.DiagnosticsSnapshot {
		return []session.DiagnosticsSnapshot{sess.DiagnosticsSnapshot()}
	}

	handler := servernet.NewHTTPHandler(resolve, diagnostics, servernet.HTTPHandlerConfig{
		Logger: logger,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	logger.Printf("server listening on %s (session %s)", cfg.Addr, cfg.SessionID)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func parseSeverity(level string) logging.Severity {
	switch strings.ToLower(level) {
	case "error":
		return logging.SeverityError
	case "warn":
		return logging.SeverityWarn
	case "info":
		return logging.SeverityInfo
	default:
		return logging.SeverityDebug
	}
}
