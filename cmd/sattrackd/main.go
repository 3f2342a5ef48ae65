package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/neurostunt/sattrack/internal/api"
	"github.com/neurostunt/sattrack/internal/auth"
	"github.com/neurostunt/sattrack/internal/ephem"
	"github.com/neurostunt/sattrack/internal/metrics"
	"github.com/neurostunt/sattrack/internal/provider"
	"github.com/neurostunt/sattrack/internal/render"
	"github.com/neurostunt/sattrack/internal/skyplot"
	"github.com/neurostunt/sattrack/internal/stream"
	"github.com/neurostunt/sattrack/internal/tle"
	"github.com/neurostunt/sattrack/internal/track"
	"github.com/neurostunt/sattrack/internal/transmitters"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("SATTRACK_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Provider selection: an N2YO key switches forecasts and passes to
	// the hosted API; without one the local SGP4 ephemeris serves both.
	apiKey := os.Getenv("SATTRACK_N2YO_API_KEY")

	var (
		positions provider.PositionProvider
		passes    provider.PassProvider
		ready     func() bool
	)

	if apiKey != "" {
		client := provider.NewN2YOClient(loadN2YOConfig(logger), logger)
		positions = client
		passes = client
		ready = func() bool { return true }
		logger.Info("using hosted N2YO provider")
	} else {
		store := tle.NewStore()
		svc := ephem.NewService(store, logger)
		positions = svc
		passes = svc
		ready = func() bool { return store.Current() != nil }

		tleCfg := loadTLEConfig(logger)
		startCatalog(ctx, store, tleCfg, logger)
		logger.Info("using local SGP4 provider", "sources", tleCfg.SourceURLs)
	}

	trackCfg := loadTrackConfig(logger)
	manager := track.NewManager(trackCfg, positions, logger)

	var radios *transmitters.Client
	if os.Getenv("SATTRACK_TRANSMITTERS_DISABLED") == "" {
		radios = transmitters.NewClient(transmitters.Config{
			BaseURL: os.Getenv("SATTRACK_SATNOGS_URL"),
		}, logger)
	}

	renderer := render.NewRenderer(skyplot.DefaultViewport)
	scenes := api.NewSceneBuilder(manager, renderer, passes, radios, apiKey, logger)

	streamCfg := loadStreamConfig(logger)
	streamHandler := stream.NewHandler(scenes, streamCfg, logger)

	srv := api.NewServer(api.Config{
		Addr:   addr,
		APIKey: apiKey,
		Auth:   authCfg,
	}, api.Deps{
		Manager: manager,
		Scenes:  scenes,
		Passes:  passes,
		Stream:  streamHandler,
		Ready:   ready,
		Logger:  logger,
	})

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	manager.Shutdown()
	logger.Info("server stopped")
}

// tleConfig holds local catalog bootstrap settings.
type tleConfig struct {
	SourceURLs   []string
	SnapshotPath string
	Refresh      time.Duration
}

// startCatalog loads the snapshot, then keeps the catalog fresh in the
// background: an immediate fetch when the snapshot is missing or stale,
// then one per refresh interval.
func startCatalog(ctx context.Context, store *tle.Store, cfg tleConfig, logger *slog.Logger) {
	snapshot := tle.NewSnapshot(cfg.SnapshotPath)
	fetcher := tle.NewFetcher(cfg.SourceURLs, logger)

	if data, savedAt, err := snapshot.Load(); err != nil {
		logger.Info("no TLE snapshot found, starting without catalog", "error", err)
	} else if entries, err := tle.Parse(bytes.NewReader(data), logger); err != nil {
		logger.Warn("failed to parse TLE snapshot", "error", err)
	} else if len(entries) > 0 {
		store.Replace(&tle.Set{Source: "snapshot", FetchedAt: savedAt, Entries: entries})
		logger.Info("loaded TLE catalog from snapshot",
			"count", len(entries), "saved_at", savedAt.Format(time.RFC3339))
	}

	refresh := func() {
		fctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		data, err := fetcher.Fetch(fctx)
		if err != nil {
			logger.Warn("TLE fetch failed, keeping current catalog", "error", err)
			return
		}
		entries, err := tle.Parse(bytes.NewReader(data), logger)
		if err != nil || len(entries) == 0 {
			logger.Warn("fetched TLE data unusable, keeping current catalog", "error", err)
			return
		}

		store.Replace(&tle.Set{Source: "fetch", FetchedAt: time.Now().UTC(), Entries: entries})
		if err := snapshot.Save(data); err != nil {
			logger.Warn("could not save TLE snapshot", "error", err)
		}
		logger.Info("TLE catalog refreshed", "count", len(entries))
	}

	go func() {
		if age := store.AgeSeconds(); age < 0 || age > cfg.Refresh.Seconds() {
			refresh()
		}

		ticker := time.NewTicker(cfg.Refresh)
		defer ticker.Stop()

		ageTicker := time.NewTicker(10 * time.Second)
		defer ageTicker.Stop()

		for {
			select {
			case <-ticker.C:
				refresh()
			case <-ageTicker.C:
				if age := store.AgeSeconds(); age >= 0 {
					metrics.SetTLEAgeSeconds(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("SATTRACK_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("SATTRACK_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("SATTRACK_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("SATTRACK_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadN2YOConfig(logger *slog.Logger) provider.N2YOConfig {
	cfg := provider.N2YOConfig{}

	if v := os.Getenv("SATTRACK_N2YO_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}

	if v := os.Getenv("SATTRACK_N2YO_HOURLY_BUDGET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATTRACK_N2YO_HOURLY_BUDGET value, using default", "value", v, "default", 900)
		} else {
			cfg.HourlyBudget = n
		}
	}

	return cfg
}

func loadTrackConfig(logger *slog.Logger) track.Config {
	cfg := track.DefaultConfig()

	if v := os.Getenv("SATTRACK_TRACK_WINDOW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATTRACK_TRACK_WINDOW value, using default", "value", v, "default", cfg.WindowSeconds)
		} else {
			cfg.WindowSeconds = n
		}
	}

	if v := os.Getenv("SATTRACK_TRACK_SAFETY_MARGIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATTRACK_TRACK_SAFETY_MARGIN value, using default", "value", v, "default", int(cfg.SafetyMargin.Seconds()))
		} else {
			cfg.SafetyMargin = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("SATTRACK_TRACK_FRAME_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 240 {
			logger.Warn("invalid SATTRACK_TRACK_FRAME_RATE value, using default", "value", v, "default", cfg.FrameRate)
		} else {
			cfg.FrameRate = n
		}
	}

	logger.Info("track config",
		"window_seconds", cfg.WindowSeconds,
		"safety_margin_seconds", cfg.SafetyMargin.Seconds(),
		"frame_rate", cfg.FrameRate,
	)

	return cfg
}

func loadStreamConfig(logger *slog.Logger) stream.Config {
	cfg := stream.Config{
		MaxConcurrentPerIP: 10,
		Interval:           time.Second,
		KeepaliveInterval:  30 * time.Second,
		WriteTimeout:       30 * time.Second,
	}

	if v := os.Getenv("SATTRACK_STREAM_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATTRACK_STREAM_MAX_CONCURRENT value, using default", "value", v, "default", 10)
		} else {
			cfg.MaxConcurrentPerIP = n
		}
	}

	if v := os.Getenv("SATTRACK_STREAM_INTERVAL_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 100 {
			logger.Warn("invalid SATTRACK_STREAM_INTERVAL_MS value, using default", "value", v, "default", 1000)
		} else {
			cfg.Interval = time.Duration(n) * time.Millisecond
		}
	}

	if v := os.Getenv("SATTRACK_STREAM_KEEPALIVE_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATTRACK_STREAM_KEEPALIVE_INTERVAL value, using default", "value", v, "default", 30)
		} else {
			cfg.KeepaliveInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("SATTRACK_STREAM_WRITE_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATTRACK_STREAM_WRITE_TIMEOUT value, using default", "value", v, "default", 30)
		} else {
			cfg.WriteTimeout = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("SATTRACK_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid SATTRACK_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.TrustProxy = trust
		}
	}

	logger.Info("stream config",
		"max_concurrent_per_ip", cfg.MaxConcurrentPerIP,
		"interval_ms", cfg.Interval.Milliseconds(),
		"keepalive_interval_seconds", cfg.KeepaliveInterval.Seconds(),
	)

	return cfg
}

func loadTLEConfig(logger *slog.Logger) tleConfig {
	cfg := tleConfig{
		SourceURLs: []string{
			"https://celestrak.org/NORAD/elements/gp.php?GROUP=stations&FORMAT=tle",
			"https://celestrak.org/NORAD/elements/gp.php?GROUP=amateur&FORMAT=tle",
		},
		SnapshotPath: "/tmp/sattrack/tle.txt",
		Refresh:      6 * time.Hour,
	}

	if v := os.Getenv("SATTRACK_TLE_URLS"); v != "" {
		var urls []string
		for _, u := range strings.Split(v, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				urls = append(urls, u)
			}
		}
		if len(urls) > 0 {
			cfg.SourceURLs = urls
		}
	}

	if v := os.Getenv("SATTRACK_TLE_SNAPSHOT"); v != "" {
		cfg.SnapshotPath = v
	}

	if v := os.Getenv("SATTRACK_TLE_REFRESH"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds < 60 {
			logger.Warn("invalid SATTRACK_TLE_REFRESH value, using default", "value", v, "default", 21600)
		} else {
			cfg.Refresh = time.Duration(seconds) * time.Second
		}
	}

	logger.Info("TLE config",
		"sources", cfg.SourceURLs,
		"snapshot", cfg.SnapshotPath,
		"refresh_seconds", cfg.Refresh.Seconds(),
	)

	return cfg
}
