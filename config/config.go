package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	PasswordSchemePlain  = "plain"
	PasswordSchemeBcrypt = "bcrypt"

	PictureStoreLocal = "local"
	PictureStoreS3    = "s3"
)

type Config struct {
	HTTPPort    int    `mapstructure:"http_port"`
	GRPCPort    int    `mapstructure:"grpc_port"`
	LogLevel    string `mapstructure:"log_level"`
	DatabaseURL string `mapstructure:"database_url"`
	ServiceName string `mapstructure:"service_name"`

	JwtSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`

	// PasswordScheme is "plain" for byte-for-byte compatibility with legacy rows, or "bcrypt".
	PasswordScheme string `mapstructure:"password_scheme"`

	PictureStore string   `mapstructure:"picture_store"`
	PictureDir   string   `mapstructure:"picture_dir"`
	S3           S3Config `mapstructure:"s3"`

	// StrictUploadErrors makes failed uploads answer 500 instead of the legacy 200.
	StrictUploadErrors bool `mapstructure:"strict_upload_errors"`

	CORS   CORSConfig   `mapstructure:"cors"`
	Consul ConsulConfig `mapstructure:"consul"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

type CORSConfig struct {
	AllowedDomains []string `mapstructure:"allowed_domains"`
}

type ConsulConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Address       string `mapstructure:"address"`
	AdvertiseHost string `mapstructure:"advertise_host"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http_port", 8000)
	v.SetDefault("grpc_port", 50051)
	v.SetDefault("log_level", "info")
	v.SetDefault("database_url", "root:@tcp(127.0.0.1:3306)/social_media?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("service_name", "social-media")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", 15*time.Minute)
	v.SetDefault("password_scheme", PasswordSchemeBcrypt)
	v.SetDefault("picture_store", PictureStoreLocal)
	v.SetDefault("picture_dir", "users")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("strict_upload_errors", false)
	v.SetDefault("cors.allowed_domains", []string{})
	v.SetDefault("consul.enabled", false)
	v.SetDefault("consul.address", "127.0.0.1:8500")
	v.SetDefault("consul.advertise_host", "127.0.0.1")
}

// Load reads config.yaml (if any), .env (if any) and SOCIAL_* environment
// variables into a Config. The result is meant to be built once at startup.
func Load(v *viper.Viper) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("SOCIAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JwtSecret == "" {
		return errors.New("jwt_secret must be set")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive, got %s", c.TokenTTL)
	}
	switch c.PasswordScheme {
	case PasswordSchemePlain, PasswordSchemeBcrypt:
	default:
		return fmt.Errorf("unknown password_scheme %q", c.PasswordScheme)
	}
	switch c.PictureStore {
	case PictureStoreLocal:
		if c.PictureDir == "" {
			return errors.New("picture_dir must be set for the local picture store")
		}
	case PictureStoreS3:
		if c.S3.Bucket == "" {
			return errors.New("s3.bucket must be set for the s3 picture store")
		}
	default:
		return fmt.Errorf("unknown picture_store %q", c.PictureStore)
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func (c *Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
