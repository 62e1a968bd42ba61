package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/t-takamichi/book-manager-api/pkg/kafka"
	"github.com/t-takamichi/book-manager-api/pkg/logger"
	"github.com/t-takamichi/book-manager-api/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration
}

// Database carries a primary and an optional replica. A replica with an
// empty host means "run on the primary alone". MaxStale is the read-after-write
// window during which reads are pinned to the primary.
type Database struct {
	Primary  postgres.DB
	Replica  postgres.DB
	MaxStale time.Duration `yaml:"maxStale" envconfig:"DB_MAX_STALE" default:"2s"`
}

type Config struct {
	Server   HTTPServer `yaml:"server"`
	Database Database   `yaml:"database"`
	Kafka    kafka.Config
	Log      logger.Log `yaml:"log"`
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment. Primary and replica databases share
// the postgres.DB shape, so they are processed under distinct prefixes
// (DB_PRIMARY_HOST, DB_REPLICA_HOST, ...).
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		var config Config
		if err := envconfig.Process("", &config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		if err := envconfig.Process("db_primary", &config.Database.Primary); err != nil {
			log.Fatal("NewConfig db_primary ", err)
		}
		if err := envconfig.Process("db_replica", &config.Database.Replica); err != nil {
			log.Fatal("NewConfig db_replica ", err)
		}
		for _, op := range ops {
			op(&config)
		}
		cfg = config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
