package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Debug         bool          `envconfig:"debug"`
	Port          int           `envconfig:"port" default:"8080"`
	DatabaseURL   string        `envconfig:"database_url"`
	RedisURL      string        `envconfig:"redis_url" default:"redis://localhost:6379"`
	JWTSecret     string        `envconfig:"jwt_secret"`
	JWTTTL        time.Duration `envconfig:"jwt_ttl" default:"24h"`
	MailgunDomain string        `envconfig:"mg_domain"`
	MailgunAPIKey string        `envconfig:"mg_api_key"`
	EmailFrom     string        `envconfig:"email_from" default:"World Salon <noreply@worldsalon.example>"`
}

func Load() (*Config, error) {
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(".env.local"); err != nil {
			if err := godotenv.Load(); err != nil {
				log.Println(".env not found, using environment variables")
			}
		}
	}

	c := &Config{}
	if err := envconfig.Process("portal", c); err != nil {
		return nil, err
	}
	return c, nil
}
