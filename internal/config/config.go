package config

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	HTTPAddr      string
	MySQLDSN      string
	RedisAddr     string
	AMQPURL       string
	AMQPExchange  string
	AdminEmail    string
	AdminPassword string
	LogLevel      string
}

// Load reads configuration from the environment, with a .env file as an
// optional source for local development.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to load .env: %v", err)
	}

	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		MySQLDSN:      getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/okabakkie?parseTime=true"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		AMQPURL:       os.Getenv("AMQP_URL"),
		AMQPExchange:  getenv("AMQP_EXCHANGE", "okabakkie.events"),
		AdminEmail:    getenv("ADMIN_EMAIL", "admin@okabakkie.na"),
		AdminPassword: getenv("ADMIN_PASSWORD", "changeme"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
	}
}

// ConfigureLogging applies the configured level and a JSON formatter to
// the global logger.
func (c Config) ConfigureLogging() {
	log.SetFormatter(&log.JSONFormatter{})

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("unknown log level %q, using info", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
