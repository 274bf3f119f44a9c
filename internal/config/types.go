package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort          = 3000
	defaultEnv           = "development"
	defaultAPIBaseURL    = "http://localhost:4000/api"
	defaultAPITimeout    = 15 * time.Second
	defaultSiteName      = "Mutuals+"
	defaultSiteURL       = "http://localhost:3000"
	defaultCurrency      = "USD"
	defaultStateDriver   = StateDriverRedis
	defaultCacheTTL      = 15 * time.Second
	defaultDBHost        = "127.0.0.1"
	defaultDBPort        = 3306
	defaultDBUser        = "root"
	defaultDBPassword    = "password"
	defaultDBName        = "mutuals"
	defaultDBCharset     = "utf8mb4"
	defaultDBLoc         = "Local"
	defaultRedisHost     = "localhost"
	defaultRedisPort     = 6379
	defaultRedisDB       = 0
	defaultImageBedPath  = "editor/{Y}/{m}/{uuid}.{ext}"
	defaultImageBedMaxMB = 10
)

// State store drivers.
const (
	StateDriverRedis  = "redis"
	StateDriverSQL    = "sql"
	StateDriverMemory = "memory"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	API            APIConfig             `yaml:"api"`
	Site           SiteConfig            `yaml:"site"`
	Shop           ShopConfig            `yaml:"shop"`
	Auth           AuthConfig            `yaml:"auth"`
	State          StateConfig           `yaml:"state"`
	Cache          CacheConfig           `yaml:"cache"`
	Uploads        UploadsConfig         `yaml:"uploads"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Paths          RuntimePathsConfig    `yaml:"paths"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	Timezone       string                `yaml:"timezone"`

	DSN      string `yaml:"-"`
	RedisURL string `yaml:"-"`
}

// APIConfig points at the external backend REST API.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	UploadURL string        `yaml:"upload_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

type SiteConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	URL         string `yaml:"url"`
}

// ShopConfig controls the Shopify checkout hand-off.
type ShopConfig struct {
	CheckoutURL string `yaml:"checkout_url"`
	Currency    string `yaml:"currency"`
}

type AuthConfig struct {
	// CookieHTTPOnly keeps the mirrored bearer token out of reach of page scripts.
	CookieHTTPOnly bool `yaml:"cookie_http_only"`
}

type StateConfig struct {
	Driver string `yaml:"driver"` // redis | sql | memory
}

type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl"`
	Disable bool          `yaml:"disable"`
}

type UploadsConfig struct {
	ImageBed ImageBedConfig `yaml:"image_bed"`
}

// ImageBedConfig sends inline editor images to an S3-compatible bucket.
type ImageBedConfig struct {
	Enable          bool   `yaml:"enable"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	CustomDomain    string `yaml:"custom_domain"`
	PathStyle       bool   `yaml:"path_style"`
	Path            string `yaml:"path"`
	MaxSizeMB       int    `yaml:"max_size_mb"`
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	TLS      bool              `yaml:"tls"`
	Params   map[string]string `yaml:"params"`
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
}

// rawAppConfig mirrors AppConfig with pointer fields so that explicit false/zero
// values in the YAML file can be told apart from omitted keys.
type rawAppConfig struct {
	Port           int                `yaml:"port"`
	Env            string             `yaml:"env"`
	API            rawAPIConfig       `yaml:"api"`
	Site           SiteConfig         `yaml:"site"`
	Shop           ShopConfig         `yaml:"shop"`
	Auth           rawAuthConfig      `yaml:"auth"`
	State          StateConfig        `yaml:"state"`
	Cache          rawCacheConfig     `yaml:"cache"`
	Uploads        UploadsConfig      `yaml:"uploads"`
	Database       rawDatabaseConfig  `yaml:"database"`
	Redis          rawRedisConfig     `yaml:"redis"`
	Paths          RuntimePathsConfig `yaml:"paths"`
	AllowedOrigins []string           `yaml:"allowed_origins"`
	Timezone       string             `yaml:"timezone"`
}

type rawAPIConfig struct {
	BaseURL   string `yaml:"base_url"`
	UploadURL string `yaml:"upload_url"`
	Timeout   string `yaml:"timeout"`
}

type rawAuthConfig struct {
	CookieHTTPOnly *bool `yaml:"cookie_http_only"`
}

type rawCacheConfig struct {
	TTL     string `yaml:"ttl"`
	Disable *bool  `yaml:"disable"`
}

type rawDatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       *int              `yaml:"db"`
	TLS      *bool             `yaml:"tls"`
	Params   map[string]string `yaml:"params"`
}
