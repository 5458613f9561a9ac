package config

import (
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/crm"
	redisclient "github.com/andomingos87/seleto-industrial-sub000/internal/infra/redis"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/storage/postgres"
	"github.com/andomingos87/seleto-industrial-sub000/internal/worker"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	CRM      crm.Config         `yaml:"crm"`
	Worker   worker.Config      `yaml:"worker"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
