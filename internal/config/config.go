// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"ha-bridge/internal/domain"
)

// Config holds all configuration for the bridge daemon.
// The mapstructure tags are used by Viper to unmarshal the data.
type Config struct {
	EtcdEndpoints  []string      `mapstructure:"etcd_endpoints" validate:"required,min=1"`
	EtcdTimeout    time.Duration `mapstructure:"etcd_timeout" validate:"gt=0"`
	HttpListenAddr string        `mapstructure:"http_listen_addr" validate:"required"`
	NodeFid        string        `mapstructure:"node_fid" validate:"required,fid"`

	// PollInterval is the consumer's wait between empty mailbox checks.
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	// RetryInterval is the fixed wait of the indefinite retry policy.
	RetryInterval time.Duration `mapstructure:"retry_interval" validate:"gt=0"`
	// RepairStatusDelay is the fixed delay of the repair-status stub.
	RepairStatusDelay time.Duration `mapstructure:"repair_status_delay" validate:"gte=0"`
	// HealthBroadcastSpec schedules the periodic local-node state broadcast.
	HealthBroadcastSpec string `mapstructure:"health_broadcast_spec" validate:"required,cron"`
}

// Load loads configuration from file and environment variables and
// validates it.
func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("etcd_endpoints", []string{"localhost:2379"})
	viper.SetDefault("etcd_timeout", "5s")
	viper.SetDefault("http_listen_addr", ":8080")
	viper.SetDefault("node_fid", "0x7200000000000001:0x1")
	viper.SetDefault("poll_interval", "200ms")
	viper.SetDefault("retry_interval", "5s")
	viper.SetDefault("repair_status_delay", "5s")
	viper.SetDefault("health_broadcast_spec", "*/30 * * * * *")

	// Set config file details
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Read environment variables
	viper.AutomaticEnv()

	// Read the config file; defaults and env vars are enough when the
	// file is absent.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := newValidator().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func newValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		_, err := parser.Parse(fl.Field().String())
		return err == nil
	})

	_ = validate.RegisterValidation("fid", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseFid(fl.Field().String())
		return err == nil
	})

	return validate
}
