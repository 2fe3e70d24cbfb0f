package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerURL string `envconfig:"PROBE_SERVER_URL" default:"ws://localhost:5050/ws"`
	Room      string `envconfig:"PROBE_ROOM" default:"probe"`
	Username  string `envconfig:"PROBE_USERNAME" default:"probe"`
	Language  string `envconfig:"PROBE_LANGUAGE" default:"english-us"`
	Message   string `envconfig:"PROBE_MESSAGE"`

	Colours bool          `envconfig:"PROBE_COLOURS" default:"true"`
	Listen  time.Duration `envconfig:"PROBE_LISTEN" default:"5s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
