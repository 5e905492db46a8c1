package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Client   ClientConfig   `yaml:"client"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
}

type HTTPConfig struct {
	Address         string `yaml:"address"`
	ShutdownSeconds int    `yaml:"shutdown_seconds"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	SlotHoldSeconds       int `yaml:"slot_hold_seconds"`
	ExpertCacheTTLSeconds int `yaml:"expert_cache_ttl_seconds"`
	DefaultPageSize       int `yaml:"default_page_size"`
}

func (b BookingConfig) SlotHold() time.Duration {
	return time.Duration(b.SlotHoldSeconds) * time.Second
}

func (b BookingConfig) ExpertCacheTTL() time.Duration {
	return time.Duration(b.ExpertCacheTTLSeconds) * time.Second
}

const (
	TransportRedis  = "redis"
	TransportMemory = "memory"
)

// RealtimeConfig selects how slot events reach viewers. The memory transport
// relays booking events inside the API process and serves single-instance
// deployments only.
type RealtimeConfig struct {
	Transport        string `yaml:"transport"`
	TopicPrefix      string `yaml:"topic_prefix"`
	AckMillis        int    `yaml:"ack_ms"`
	KeepAliveSeconds int    `yaml:"keepalive_seconds"`
}

func (r RealtimeConfig) AckDuration() time.Duration {
	return time.Duration(r.AckMillis) * time.Millisecond
}

func (r RealtimeConfig) KeepAlive() time.Duration {
	return time.Duration(r.KeepAliveSeconds) * time.Second
}

type ClientConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type WorkerConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
}

func Default() Config {
	return Config{
		App:      AppConfig{Env: "development", LogLevel: "info"},
		HTTP:     HTTPConfig{Address: ":8080", ShutdownSeconds: 5},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, SSLMode: "disable"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Kafka: KafkaConfig{
			Brokers:            []string{"localhost:9092"},
			BookingEventsTopic: "booking-events",
			GroupID:            "slot-relay",
		},
		Booking: BookingConfig{
			SlotHoldSeconds:       30,
			ExpertCacheTTLSeconds: 60,
			DefaultPageSize:       9,
		},
		Realtime: RealtimeConfig{Transport: TransportRedis, TopicPrefix: "slots", AckMillis: 2000, KeepAliveSeconds: 15},
		Client:   ClientConfig{BaseURL: "http://localhost:8080/api", TimeoutSeconds: 10},
		Worker:   WorkerConfig{MetricsAddress: ":9091"},
	}
}

// Path returns the config file location. Variables from a local .env file
// are loaded first and never override the process environment.
func Path() string {
	_ = godotenv.Load()
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

// LoadConfig reads the YAML file at path on top of Default. A missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
