package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/oauthflow/internal/oauth"
	"github.com/dropDatabas3/oauthflow/internal/validation"
)

type Config struct {
	App struct {
		// dev | prod | test
		Env string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr          string `yaml:"addr"`
		SessionSecret string `yaml:"session_secret"` // HS256 key del cookie de sesión
		CookieName    string `yaml:"cookie_name"`
		SessionTTL    string `yaml:"session_ttl"`
		SecureCookie  bool   `yaml:"secure_cookie"`
	} `yaml:"server"`

	// Provider: si Preset está seteado, las URLs vacías se completan desde
	// el preset (facebook | github | google).
	Provider struct {
		Preset         string `yaml:"preset"`
		oauth.Endpoint `yaml:",inline"`
		ClientID       string `yaml:"client_id"`
		ClientSecret   string `yaml:"client_secret"`
		RedirectURL    string `yaml:"redirect_url"`
		HTTPTimeout    string `yaml:"http_timeout"`
	} `yaml:"provider"`

	Cache struct {
		Kind       string `yaml:"kind"` // memory | redis
		Prefix     string `yaml:"prefix"`
		DefaultTTL string `yaml:"default_ttl"`
		Redis      struct {
			Addr     string `yaml:"addr"`
			DB       int    `yaml:"db"`
			Password string `yaml:"password"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`
}

// Load lee el YAML en path (si path es vacío usa solo defaults + env),
// aplica overrides de entorno y valida.
func Load(path string) (*Config, error) {
	var c Config
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	c.applyEnvOverrides()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.CookieName == "" {
		c.Server.CookieName = "oauth_sid"
	}
	if c.Server.SessionTTL == "" {
		c.Server.SessionTTL = "24h"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "oauthflow"
	}
	if c.Cache.DefaultTTL == "" {
		c.Cache.DefaultTTL = "30m"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Provider.HTTPTimeout == "" {
		c.Provider.HTTPTimeout = "10s"
	}

	// Completar URLs vacías desde el preset
	if p, ok := oauth.Preset(c.Provider.Preset); ok {
		e := &c.Provider.Endpoint
		if e.Provider == "" {
			e.Provider = p.Provider
		}
		if e.AuthURL == "" {
			e.AuthURL = p.AuthURL
		}
		if e.AccessTokenURL == "" {
			e.AccessTokenURL = p.AccessTokenURL
		}
		if e.RefreshTokenURL == "" {
			e.RefreshTokenURL = p.RefreshTokenURL
		}
		if e.UserInfoURL == "" {
			e.UserInfoURL = p.UserInfoURL
		}
		if e.Scope == "" {
			e.Scope = p.Scope
		}
	}

	// Guardia: en prod el cookie siempre es Secure.
	if e := strings.ToLower(c.App.Env); e == "prod" || e == "production" {
		c.Server.SecureCookie = true
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SESSION_SECRET"); ok {
		c.Server.SessionSecret = v
	}

	// PROVIDER
	if v, ok := getEnvStr("OAUTH_PROVIDER"); ok {
		c.Provider.Preset = v
	}
	if v, ok := getEnvStr("OAUTH_CLIENT_ID"); ok {
		c.Provider.ClientID = v
	}
	if v, ok := getEnvStr("OAUTH_CLIENT_SECRET"); ok {
		c.Provider.ClientSecret = v
	}
	if v, ok := getEnvStr("OAUTH_REDIRECT_URL"); ok {
		c.Provider.RedirectURL = v
	}
	if v, ok := getEnvStr("OAUTH_SCOPE"); ok {
		c.Provider.Scope = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
}

// Validate chequea duraciones y valores enumerados. Las credenciales se
// validan al construir oauth.ClientCredentials.
func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"server.session_ttl":    c.Server.SessionTTL,
		"cache.default_ttl":     c.Cache.DefaultTTL,
		"rate.window":           c.Rate.Window,
		"provider.http_timeout": c.Provider.HTTPTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: cache.kind %q (memory|redis)", c.Cache.Kind)
	}
	if p := strings.TrimSpace(c.Provider.Preset); p != "" {
		if _, ok := oauth.Preset(p); !ok {
			return fmt.Errorf("config: unknown provider preset %q", p)
		}
	}
	if c.Provider.AuthURL == "" || c.Provider.AccessTokenURL == "" || c.Provider.UserInfoURL == "" {
		return errors.New("config: provider auth_url, access_token_url and user_info_url are required (or set provider.preset)")
	}
	// El scope viaja sin escapar en la URL de autorización.
	if bad := validation.InvalidScope(c.Provider.Scope); bad != "" {
		return fmt.Errorf("config: provider.scope: invalid scope %q (use '+' or ',' as separator)", bad)
	}
	return nil
}

// Duration parsea un campo ya validado por Validate.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
