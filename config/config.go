package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Web      WebConfig      `yaml:"web"`
	Bus      BusConfig      `yaml:"bus"`
	Jobs     JobsConfig     `yaml:"jobs"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// BusConfig carries the per-robot pub/sub session settings. The timing
// values drifted across revisions of the original deployment, so they are
// configuration rather than constants.
type BusConfig struct {
	Backend         string        `yaml:"backend"` // mqtt or kafka
	Port            int           `yaml:"port"`    // default robot bridge port
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	MonitorInterval time.Duration `yaml:"monitor_interval"`
	StatusDebounce  time.Duration `yaml:"status_debounce"`
	Kafka           KafkaConfig   `yaml:"kafka"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

type JobsConfig struct {
	ReturnDelay time.Duration `yaml:"return_delay"`
}

func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "wmsbridge.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "wmsbridge",
				User:     "wmsbridge",
				Password: "",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
		},
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Bus: BusConfig{
			Backend:         "mqtt",
			Port:            9090,
			ConnectTimeout:  2500 * time.Millisecond,
			MonitorInterval: 500 * time.Millisecond,
			StatusDebounce:  3 * time.Second,
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "wmsbridge",
			},
		},
		Jobs: JobsConfig{
			ReturnDelay: 300 * time.Millisecond,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
