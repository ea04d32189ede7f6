// ABOUTME: Daemon settings loaded from ~/.agentdeck/config.yaml with sane defaults
// ABOUTME: Covers ingress address, drain interval, hook timeout, fetch allowlist, LLM endpoint

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds tunables for the hook pipeline daemon.
type Settings struct {
	// IngressAddr is the listen address of the hook-event HTTP ingress.
	IngressAddr string `yaml:"ingress_addr"`

	// IngressToken, when non-empty, must be presented by ingress callers
	// in the X-Agentdeck-Token header. It catches misdirected requests,
	// nothing more.
	IngressToken string `yaml:"ingress_token"`

	// DrainIntervalMs is the wake interval of the async queue drain worker.
	DrainIntervalMs int `yaml:"drain_interval_ms"`

	// HookTimeoutSec caps wall-clock execution of a single hook.
	HookTimeoutSec int `yaml:"hook_timeout_sec"`

	// LogDBPath overrides the execution log database location.
	LogDBPath string `yaml:"log_db_path"`

	// LogCap is the number of log entries retained before pruning.
	LogCap int `yaml:"log_cap"`

	// FetchAllowHosts extends the sandbox fetch allowlist beyond loopback.
	FetchAllowHosts []string `yaml:"fetch_allow_hosts"`

	// LLMServiceURL is the local language-model endpoint used by the
	// sandbox llmQuery helper.
	LLMServiceURL string `yaml:"llm_service_url"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		IngressAddr:     "127.0.0.1:4517",
		DrainIntervalMs: 500,
		HookTimeoutSec:  30,
		LogDBPath:       LogDBFile(),
		LogCap:          1000,
		FetchAllowHosts: []string{"localhost", "host.docker.internal"},
		LLMServiceURL:   "http://127.0.0.1:11434/api/generate",
	}
}

// LoadSettings reads settings from path, filling unset fields from defaults.
// A missing file is not an error; defaults are returned.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}

	var file Settings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}

	if file.IngressAddr != "" {
		s.IngressAddr = file.IngressAddr
	}
	if file.IngressToken != "" {
		s.IngressToken = file.IngressToken
	}
	if file.DrainIntervalMs > 0 {
		s.DrainIntervalMs = file.DrainIntervalMs
	}
	if file.HookTimeoutSec > 0 {
		s.HookTimeoutSec = file.HookTimeoutSec
	}
	if file.LogDBPath != "" {
		s.LogDBPath = file.LogDBPath
	}
	if file.LogCap > 0 {
		s.LogCap = file.LogCap
	}
	if len(file.FetchAllowHosts) > 0 {
		s.FetchAllowHosts = file.FetchAllowHosts
	}
	if file.LLMServiceURL != "" {
		s.LLMServiceURL = file.LLMServiceURL
	}

	return s, nil
}

// DrainInterval returns DrainIntervalMs as a duration.
func (s Settings) DrainInterval() time.Duration {
	return time.Duration(s.DrainIntervalMs) * time.Millisecond
}

// HookTimeout returns HookTimeoutSec as a duration.
func (s Settings) HookTimeout() time.Duration {
	return time.Duration(s.HookTimeoutSec) * time.Second
}
