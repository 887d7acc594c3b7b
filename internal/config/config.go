package config

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	TreasuryName string `env:"TREASURY_NAME,default=treasury"`
	APIKEY       string `env:"API_KEY,required"`
	DataDir      string `env:"DATA_DIR,default=data"`
	SentryURL    string `env:"SENTRY_URL"`
	WebhookURL   string `env:"WEBHOOK_URL"`

	ArchiveDBUser     string `env:"ARCHIVE_DB_USER"`
	ArchiveDBPassword string `env:"ARCHIVE_DB_PASSWORD"`
	ArchiveDBName     string `env:"ARCHIVE_DB_NAME"`
	ArchiveDBHost     string `env:"ARCHIVE_DB_HOST"`
}

func New(ctx context.Context, envpath string) (*Config, error) {
	if envpath != "" {
		log.Default().Println("loading env from file: ", envpath)
		err := godotenv.Load(envpath)
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	err := envconfig.Process(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ArchiveConfigured reports whether the optional event archive mirror is set up
func (c *Config) ArchiveConfigured() bool {
	return c.ArchiveDBHost != "" && c.ArchiveDBName != "" && c.ArchiveDBUser != ""
}
