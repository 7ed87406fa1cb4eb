package db

import (
	"fmt"
	"net"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/smallbiznis/hirehub/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialect picks the gorm dialector for cfg.DBType. All sessions run in UTC.
func Dialect(cfg config.Config) (gorm.Dialector, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.DBType) {
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return postgres.New(postgres.Config{DSN: dsn}), nil
	}
}

// DSN renders the driver connection string for cfg.
func DSN(cfg config.Config) (string, error) {
	switch strings.ToLower(cfg.DBType) {
	case "postgres", "":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode), nil
	case "mysql":
		mc := gomysql.NewConfig()
		mc.User = cfg.DBUser
		mc.Passwd = cfg.DBPassword
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
		mc.DBName = cfg.DBName
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil
	case "sqlite":
		name := cfg.DBName
		if name == "" {
			name = "hirehub"
		}
		return name + ".db?_foreign_keys=on", nil
	default:
		return "", fmt.Errorf("unsupported database type %q", cfg.DBType)
	}
}
