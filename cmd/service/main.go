package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dropDatabas3/oauthflow/internal/cache"
	"github.com/dropDatabas3/oauthflow/internal/config"
	httpserver "github.com/dropDatabas3/oauthflow/internal/http"
	"github.com/dropDatabas3/oauthflow/internal/oauth"
	"github.com/dropDatabas3/oauthflow/internal/observability/logger"
	"github.com/dropDatabas3/oauthflow/internal/rate"
	"github.com/dropDatabas3/oauthflow/internal/session"
)

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH; vacío = solo env)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
	)
	flag.Parse()

	if fileExists(*flagEnvFile) {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("dotenv: cargado %s", *flagEnvFile)
		}
	}

	cfgPath := *flagConfigPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "oauthflow"})
	defer func() { _ = logger.Sync() }()
	lg := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─── Credenciales / proveedor ───
	creds, err := oauth.NewClientCredentials(cfg.Provider.ClientID, cfg.Provider.ClientSecret)
	if err != nil {
		lg.Fatal("client credentials", logger.Err(err))
	}
	fetcher := oauth.NewHTTPFetcher(&http.Client{Timeout: config.Duration(cfg.Provider.HTTPTimeout)})

	// ─── Cache + sesiones ───
	cc, err := cache.New(ctx, cache.Config{
		Driver:     cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Prefix,
		DefaultTTL: config.Duration(cfg.Cache.DefaultTTL),
	})
	if err != nil {
		lg.Fatal("cache", logger.Err(err))
	}
	defer cc.Close()
	sessions := session.NewStore(cc, config.Duration(cfg.Server.SessionTTL))

	// ─── Rate limit ───
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		window := config.Duration(cfg.Rate.Window)
		backend := "memory"
		if rc, ok := cache.Redis(cc); ok {
			limiter = rate.NewRedisLimiter(rc, cfg.Cache.Prefix+":rl:", cfg.Rate.MaxRequests, window)
			backend = "redis"
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, window)
		}
		lg.Info("rate limit enabled",
			logger.Component("rate"),
			logger.String("backend", backend),
			logger.Int("max_requests", cfg.Rate.MaxRequests),
			logger.String("window", window.String()),
		)
	}

	// ─── Métricas ───
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsHandler, err := httpserver.RegisterMetrics(reg)
	if err != nil {
		lg.Fatal("metrics", logger.Err(err))
	}

	if cfg.Server.SessionSecret == "" {
		lg.Warn("SESSION_SECRET vacío: se usa una clave efímera, las sesiones no sobreviven reinicios")
	}
	cookies, err := httpserver.NewCookieCodec(cfg.Server.CookieName, cfg.Server.SessionSecret,
		config.Duration(cfg.Server.SessionTTL), cfg.Server.SecureCookie)
	if err != nil {
		lg.Fatal("session cookie", logger.Err(err))
	}

	auth := httpserver.NewAuthHandler(creds, cfg.Provider.Endpoint, cfg.Provider.RedirectURL, fetcher, sessions, cookies)
	handler := httpserver.NewRouter(httpserver.RouterDeps{
		Auth:     auth,
		Sessions: sessions,
		Limiter:  limiter,
		Metrics:  metricsHandler,
	})

	lg.Info("service up",
		logger.String("addr", cfg.Server.Addr),
		logger.Provider(cfg.Provider.Endpoint.Provider),
		logger.String("cache", cfg.Cache.Kind),
		logger.Bool("rate_limit", limiter != nil),
		logger.String("time", time.Now().Format(time.RFC3339)),
	)

	if err := httpserver.Start(ctx, cfg.Server.Addr, handler); err != nil {
		lg.Fatal("http", logger.Err(err))
	}
}
