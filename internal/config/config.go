package config

import (
	"github.com/mkraev/crudkit/internal/logger"
)

// Backend selects which store serves albums.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

type Config struct {
	Server   Server        `mapstructure:"server"`
	Logger   logger.Config `mapstructure:"logger"`
	Postgres Postgres      `mapstructure:"postgres"`
	SQLite   SQLite        `mapstructure:"sqlite"`
	Catalog  Catalog       `mapstructure:"catalog"`
	CRUD     CRUD          `mapstructure:"crud"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type Postgres struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	DBName            string `mapstructure:"dbname"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

type SQLite struct {
	Path string `mapstructure:"path"`
}

// Catalog locates the JSON file backing the filesystem record store.
type Catalog struct {
	Path string `mapstructure:"path"`
}

// CRUD carries controller defaults shared by every mounted resource.
type CRUD struct {
	Backend            Backend `mapstructure:"backend"`
	PageSize           int     `mapstructure:"page_size"`
	ViewOnSingleResult bool    `mapstructure:"view_on_single_result"`
	CaseSensitiveMatch bool    `mapstructure:"case_sensitive_match"`
	NotEqualOperator   string  `mapstructure:"not_equal_operator"`
}
