package config

import (
	"log"

	"notisub/pkg/config"

	"gopkg.in/yaml.v3"
)

// ChannelConfig is one deliverable channel of a notification type.
type ChannelConfig struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
}

// NotificationTypeConfig describes a subscribable notification type.
type NotificationTypeConfig struct {
	Label       string          `yaml:"label"`
	Description string          `yaml:"description"`
	Channels    []ChannelConfig `yaml:"channels"`
}

// DigestConfig holds digest batch settings.
type DigestConfig struct {
	// TickSeconds is the scheduler interval for the digest batch job.
	TickSeconds int `yaml:"tick_seconds"`
	// Subject is the mail subject for digest messages.
	Subject string `yaml:"subject"`
}

type Config struct {
	DB            config.DBConfig                   `yaml:"db"`
	MQ            config.MQConfig                   `yaml:"mq"`
	Redis         config.RedisConfig                `yaml:"redis"`
	Server        config.ServerConfig               `yaml:"server"`
	Postmark      config.PostmarkConfig             `yaml:"postmark"`
	Digest        DigestConfig                      `yaml:"digest"`
	Notifications map[string]NotificationTypeConfig `yaml:"notifications"`
}

func Load() *Config {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var cfg Config
	cfgData, err := yaml.Marshal(cfgMap)
	if err != nil {
		log.Fatalf("failed to marshal config: %v", err)
	}
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	// Environment variables win over file values.
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverridePostmarkFromEnv(&cfg.Postmark)

	if cfg.Digest.TickSeconds <= 0 {
		cfg.Digest.TickSeconds = 60
	}
	if cfg.Digest.Subject == "" {
		cfg.Digest.Subject = "Your Notification Digest"
	}

	return &cfg
}
