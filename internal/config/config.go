package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config file at configPath and applies defaults.
// A missing file is not an error when the default path is used.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg := defaultAppConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	return Parse(content, path)
}

// Parse decodes YAML config content. source is only used in error messages.
func Parse(content []byte, source string) (*AppConfig, error) {
	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	raw := rawAppConfig{}
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config file %q: %w", source, err)
	}

	if err := applyRawAppConfig(&cfg, raw); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", source, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", source, err)
	}
	return &cfg, nil
}

// Validate checks ranges and enumerations after defaults were applied.
func (c *AppConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	switch c.State.Driver {
	case StateDriverRedis, StateDriverSQL, StateDriverMemory:
	default:
		return fmt.Errorf("invalid state.driver %q, expected redis, sql or memory", c.State.Driver)
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("invalid api.base_url %q, expected an http(s) URL", c.API.BaseURL)
	}
	if c.Uploads.ImageBed.Enable {
		ib := c.Uploads.ImageBed
		if ib.Bucket == "" || ib.Region == "" || ib.AccessKeyID == "" || ib.SecretAccessKey == "" {
			return fmt.Errorf("incomplete uploads.image_bed: bucket/region/access_key_id/secret_access_key are required")
		}
	}
	return nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		API: APIConfig{
			BaseURL: defaultAPIBaseURL,
			Timeout: defaultAPITimeout,
		},
		Site: SiteConfig{
			Name: defaultSiteName,
			URL:  defaultSiteURL,
		},
		Shop:  ShopConfig{Currency: defaultCurrency},
		Auth:  AuthConfig{CookieHTTPOnly: true},
		State: StateConfig{Driver: defaultStateDriver},
		Cache: CacheConfig{TTL: defaultCacheTTL},
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Uploads: UploadsConfig{ImageBed: ImageBedConfig{
			Path:      defaultImageBedPath,
			MaxSizeMB: defaultImageBedMaxMB,
		}},
	}
	cfg.API = normalizeAPIConfig(cfg.API)
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) error {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}

	if v := strings.TrimSpace(raw.API.BaseURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(raw.API.UploadURL); v != "" {
		cfg.API.UploadURL = v
	}
	if v := strings.TrimSpace(raw.API.Timeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid api.timeout %q", v)
		}
		cfg.API.Timeout = d
	}

	if v := strings.TrimSpace(raw.Site.Name); v != "" {
		cfg.Site.Name = v
	}
	if v := strings.TrimSpace(raw.Site.Description); v != "" {
		cfg.Site.Description = v
	}
	if v := strings.TrimSpace(raw.Site.URL); v != "" {
		cfg.Site.URL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.Shop.CheckoutURL); v != "" {
		cfg.Shop.CheckoutURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.Shop.Currency); v != "" {
		cfg.Shop.Currency = strings.ToUpper(v)
	}
	if raw.Auth.CookieHTTPOnly != nil {
		cfg.Auth.CookieHTTPOnly = *raw.Auth.CookieHTTPOnly
	}
	if v := strings.TrimSpace(raw.State.Driver); v != "" {
		cfg.State.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Cache.TTL); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid cache.ttl %q", v)
		}
		cfg.Cache.TTL = d
	}
	if raw.Cache.Disable != nil {
		cfg.Cache.Disable = *raw.Cache.Disable
	}

	cfg.Uploads.ImageBed = applyImageBedConfig(cfg.Uploads.ImageBed, raw.Uploads.ImageBed)
	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw.Database)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw.Redis)

	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if raw.AllowedOrigins != nil {
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	}
	if v := strings.TrimSpace(raw.Timezone); v != "" {
		cfg.Timezone = v
	}

	cfg.API = normalizeAPIConfig(cfg.API)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	cfg.Env = normalizeEnv(cfg.Env)
	return nil
}

func applyImageBedConfig(current, raw ImageBedConfig) ImageBedConfig {
	cfg := current
	cfg.Enable = raw.Enable
	cfg.PathStyle = raw.PathStyle
	if v := strings.TrimSpace(raw.Endpoint); v != "" {
		cfg.Endpoint = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.Region); v != "" {
		cfg.Region = v
	}
	if v := strings.TrimSpace(raw.Bucket); v != "" {
		cfg.Bucket = v
	}
	if v := strings.TrimSpace(raw.AccessKeyID); v != "" {
		cfg.AccessKeyID = v
	}
	if v := strings.TrimSpace(raw.SecretAccessKey); v != "" {
		cfg.SecretAccessKey = v
	}
	if v := strings.TrimSpace(raw.CustomDomain); v != "" {
		cfg.CustomDomain = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.Path); v != "" {
		cfg.Path = v
	}
	if raw.MaxSizeMB > 0 {
		cfg.MaxSizeMB = raw.MaxSizeMB
	}
	return cfg
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawDatabaseConfig) DatabaseRuntimeConfig {
	cfg := current
	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.Host); v != "" {
		cfg.Host = v
	}
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.User); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(raw.Password); v != "" {
		cfg.Password = v
	}
	if v := strings.TrimSpace(raw.Name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Charset); v != "" {
		cfg.Charset = v
	}
	if raw.ParseTime != nil {
		cfg.ParseTime = *raw.ParseTime
	}
	if v := strings.TrimSpace(raw.Loc); v != "" {
		cfg.Loc = v
	}
	if raw.Params != nil {
		cfg.Params = raw.Params
	}
	return normalizeDatabaseConfig(cfg)
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawRedisConfig) RedisRuntimeConfig {
	cfg := current
	if v := strings.TrimSpace(raw.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.Host); v != "" {
		cfg.Host = v
	}
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Username); v != "" {
		cfg.Username = v
	}
	if v := strings.TrimSpace(raw.Password); v != "" {
		cfg.Password = v
	}
	if raw.DB != nil {
		cfg.DB = *raw.DB
	}
	if raw.TLS != nil {
		cfg.TLS = *raw.TLS
	}
	if raw.Params != nil {
		cfg.Params = raw.Params
	}
	return normalizeRedisConfig(cfg)
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

// LogDir returns the log directory. A relative path sits next to the binary,
// or under the working directory when the binary cannot be located.
func (c *AppConfig) LogDir() string {
	dir := "logs"
	if c != nil && strings.TrimSpace(c.Paths.Logs) != "" {
		dir = strings.TrimSpace(c.Paths.Logs)
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(binaryDir(), dir)
}

func binaryDir() string {
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// UploadEndpoint returns the backend media upload URL.
func (c *AppConfig) UploadEndpoint() string {
	if c.API.UploadURL != "" {
		return c.API.UploadURL
	}
	return c.API.BaseURL + "/media/upload"
}

// Override applies command line values on top of the file. Zero values keep
// what the file set.
func (c *AppConfig) Override(port int, env string) error {
	if port != 0 {
		c.Port = port
	}
	if strings.TrimSpace(env) != "" {
		c.Env = normalizeEnv(env)
	}
	return c.Validate()
}
