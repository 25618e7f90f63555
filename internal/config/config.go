package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAPIBaseURL     = "https://api.finallyfreeai.com"
	DefaultMacDownloadURL = "https://github.com/Building-Humanity-Up/youareloved/releases/latest/download/YouAreLoved.pkg"
)

type Config struct {
	Port          int
	SessionSecret string
	GinMode       string
	TLSCertFile   string
	TLSKeyFile    string
	CookieSecure  bool

	APIBaseURL string
	APITimeout time.Duration
	SessionTTL time.Duration
	SessionMax int

	// ProfileLinkHosts are hosts, besides the API host, whose https
	// profile links may be rendered as QR codes.
	ProfileLinkHosts []string

	MacDownloadURL     string
	LogLevel           string
	RateLimitPerMinute int

	// RequirePartnerForEnroll blocks enrollment until a partner exists.
	RequirePartnerForEnroll bool
}

func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(osEnv{})
}

func LoadConfigFromEnv(env Env) (Config, error) {
	cfg := Config{
		Port:               3000,
		GinMode:            "release",
		APIBaseURL:         DefaultAPIBaseURL,
		APITimeout:         15 * time.Second,
		SessionTTL:         24 * time.Hour,
		SessionMax:         10000,
		MacDownloadURL:     DefaultMacDownloadURL,
		LogLevel:           "info",
		RateLimitPerMinute: 30,
	}

	if raw := env.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT")
		}
		cfg.Port = port
	}

	cfg.SessionSecret = env.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET is required")
	}

	if raw := env.Getenv("GIN_MODE"); raw != "" {
		cfg.GinMode = raw
	}

	cfg.TLSCertFile = env.Getenv("TLS_CERT_FILE")
	cfg.TLSKeyFile = env.Getenv("TLS_KEY_FILE")
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return Config{}, fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}

	cfg.CookieSecure = cfg.TLSEnabled()
	if raw := env.Getenv("COOKIE_SECURE"); raw != "" {
		secure, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COOKIE_SECURE")
		}
		cfg.CookieSecure = secure
	}

	if raw := env.Getenv("API_BASE_URL"); raw != "" {
		if !absoluteHTTP(raw) {
			return Config{}, fmt.Errorf("invalid API_BASE_URL")
		}
		cfg.APIBaseURL = strings.TrimRight(raw, "/")
	}

	var err error
	if cfg.APITimeout, err = seconds(env, "API_TIMEOUT_SECONDS", cfg.APITimeout); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = seconds(env, "SESSION_TTL_SECONDS", cfg.SessionTTL); err != nil {
		return Config{}, err
	}

	if raw := env.Getenv("SESSION_MAX"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid SESSION_MAX")
		}
		cfg.SessionMax = n
	}

	if raw := env.Getenv("PROFILE_LINK_HOSTS"); raw != "" {
		for _, host := range strings.Split(raw, ",") {
			host = strings.ToLower(strings.TrimSpace(host))
			if host == "" {
				continue
			}
			if !bareHost(host) {
				return Config{}, fmt.Errorf("invalid PROFILE_LINK_HOSTS entry %q", host)
			}
			cfg.ProfileLinkHosts = append(cfg.ProfileLinkHosts, host)
		}
	}

	if raw := env.Getenv("MAC_DOWNLOAD_URL"); raw != "" {
		if !absoluteHTTP(raw) {
			return Config{}, fmt.Errorf("invalid MAC_DOWNLOAD_URL")
		}
		cfg.MacDownloadURL = raw
	}

	if raw := env.Getenv("LOG_LEVEL"); raw != "" {
		switch level := strings.ToLower(raw); level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			return Config{}, fmt.Errorf("invalid LOG_LEVEL")
		}
	}

	if raw := env.Getenv("RATE_LIMIT_PER_MINUTE"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return Config{}, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE")
		}
		cfg.RateLimitPerMinute = limit
	}

	if raw := env.Getenv("REQUIRE_PARTNER_FOR_ENROLL"); raw != "" {
		require, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REQUIRE_PARTNER_FOR_ENROLL")
		}
		cfg.RequirePartnerForEnroll = require
	}

	return cfg, nil
}

func seconds(env Env, key string, def time.Duration) (time.Duration, error) {
	raw := env.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return time.Duration(n) * time.Second, nil
}

func absoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// bareHost accepts "name" or "name:port" with nothing else around it.
func bareHost(host string) bool {
	u, err := url.Parse("https://" + host)
	return err == nil && u.Host == host && u.User == nil && u.Path == "" && u.RawQuery == "" && u.Fragment == ""
}
