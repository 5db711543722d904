// Package config handles configuration for the CLI client.
package config

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/dmitrijs2005/taskvault/internal/flagx"
)

// Config holds runtime settings for the TaskVault CLI.
type Config struct {
	// ServerEndpointAddr is the base URL of the TaskVault HTTP API,
	// e.g. "http://localhost:8080".
	ServerEndpointAddr string
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://localhost:8080"
}

// JsonConfig is the DTO for the optional JSON config file.
type JsonConfig struct {
	ServerEndpointAddr string `json:"server_endpoint_addr"`
}

func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.ServerEndpointAddr != "" {
		config.ServerEndpointAddr = c.ServerEndpointAddr
	}
}

func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&config.ServerEndpointAddr, "a", config.ServerEndpointAddr, "server endpoint address")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

// LoadConfig builds a Config from defaults, an optional JSON file and flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
