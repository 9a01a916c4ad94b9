package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Env  string `mapstructure:"env"`
	Port int    `mapstructure:"port"`
}

type StoreConfig struct {
	Path    string `mapstructure:"path"`
	BlobDir string `mapstructure:"blob_dir"`
	BaseURL string `mapstructure:"base_url"`
}

type ChatConfig struct {
	SimulateAcks bool          `mapstructure:"simulate_acks"`
	DeliverAfter time.Duration `mapstructure:"deliver_after"`
	ReadAfter    time.Duration `mapstructure:"read_after"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

type S3Config struct {
	Enabled    bool          `mapstructure:"enabled"`
	Region     string        `mapstructure:"region"`
	Bucket     string        `mapstructure:"bucket"`
	PublicRead bool          `mapstructure:"public_read"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

type Config struct {
	App   AppConfig   `mapstructure:"app"`
	Store StoreConfig `mapstructure:"store"`
	Chat  ChatConfig  `mapstructure:"chat"`
	JWT   JWTConfig   `mapstructure:"jwt"`
	Redis RedisConfig `mapstructure:"redis"`
	Kafka KafkaConfig `mapstructure:"kafka"`
	S3    S3Config    `mapstructure:"s3"`
}

// Load reads config.yaml if present, with CHAT_-prefixed env vars
// overriding, and fills in defaults that match the reference
// behavior (1s deliver / 3s read simulated acks).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8084)
	v.SetDefault("store.path", "data/chat.json")
	v.SetDefault("store.blob_dir", "data/blobs")
	v.SetDefault("store.base_url", "http://localhost:8084")
	v.SetDefault("chat.simulate_acks", true)
	v.SetDefault("chat.deliver_after", time.Second)
	v.SetDefault("chat.read_after", 3*time.Second)
	v.SetDefault("jwt.secret", "dev-secret")
	v.SetDefault("s3.presign_ttl", 15*time.Minute)

	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
