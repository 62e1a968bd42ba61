package kafka

import (
	"github.com/IBM/sarama"
)

const LoanEventsTopic = "loan-events"

type Config struct {
	Addrs   []string `yaml:"addrs" envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
	Enabled bool     `yaml:"enabled" envconfig:"KAFKA_ENABLED"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}
