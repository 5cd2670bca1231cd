package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bookden/library-service/pkg/kafka"
	"github.com/bookden/library-service/pkg/logger"
	"github.com/bookden/library-service/pkg/postgres"

	"github.com/kelseyhightower/envconfig"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"LIBRARY_HTTP_HOST"`
	Port         string        `yaml:"port" envconfig:"LIBRARY_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ"`
	WriteTimeout time.Duration
}

type Covers struct {
	BaseURL string `yaml:"baseURL" envconfig:"COVERS_BASE_URL"`
}

// Demo selects the JSON-file storage backend instead of postgres.
type Demo struct {
	Enabled bool   `yaml:"enabled" envconfig:"DEMO_MODE"`
	File    string `yaml:"file" envconfig:"DEMO_FILE" default:"library-demo.json"`
}

// Auth holds the demo accounts. Plaintext on purpose: demo-grade credentials,
// hashed at startup.
type Auth struct {
	AdminUser      string `envconfig:"AUTH_ADMIN_USER" default:"admin"`
	AdminPassword  string `envconfig:"AUTH_ADMIN_PASSWORD" default:"admin" json:"-"`
	ReaderUser     string `envconfig:"AUTH_READER_USER" default:"reader"`
	ReaderPassword string `envconfig:"AUTH_READER_PASSWORD" default:"reader" json:"-"`
}

type Config struct {
	Server   HTTPServer `yaml:"server"`
	Database postgres.Config
	Kafka    kafka.Config
	Covers   Covers
	Demo     Demo
	Auth     Auth
	Log      logger.Log `yaml:"log"`
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return &cfg
}

func printConfig(cfg Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
