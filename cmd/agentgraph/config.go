package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all agentgraph server configuration.
// Priority: env vars > settings.json > .env > defaults.
type Config struct {
	ListenAddr   string `json:"listen_addr"`
	BackendURL   string `json:"backend_url"`
	DBPath       string `json:"db_path"`
	LogLevel     string `json:"log_level"`
	HistoryLimit int    `json:"history_limit"`
	RunTimeoutS  int    `json:"run_timeout_seconds"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr:   ":4200",
		BackendURL:   "http://localhost:8000",
		DBPath:       filepath.Join(agentgraphDir(), "workflows.db"),
		LogLevel:     "info",
		HistoryLimit: 100,
		RunTimeoutS:  300,
	}
}

func agentgraphDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agentgraph"
	}
	return filepath.Join(home, ".agentgraph")
}

func settingsPath() string {
	return filepath.Join(agentgraphDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("AGENTGRAPH_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("AGENTGRAPH_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("AGENTGRAPH_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("AGENTGRAPH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("AGENTGRAPH_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}
	if v := os.Getenv("AGENTGRAPH_RUN_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RunTimeoutS = n
		}
	}

	return cfg
}

// RunTimeout returns the configured run timeout as a duration.
func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutS) * time.Second
}
