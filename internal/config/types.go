// Package config loads, merges, validates, and serves the gateway's YAML
// configuration, following a load → merge-with-builtins → validate
// pipeline.
package config

import "time"

// GatewayYAMLConfig is the top-level shape of gateway.yaml.
type GatewayYAMLConfig struct {
	Server      *ServerConfig                `yaml:"server"`
	Auth        *AuthConfig                  `yaml:"auth"`
	Providers   *ProvidersConfig             `yaml:"providers"`
	Prompts     *PromptsConfig               `yaml:"prompts"`
	Orchestrator *OrchestratorConfig         `yaml:"orchestrator"`
	Classifier  *ClassifierConfig            `yaml:"classifier"`
	Specialists map[string]SpecialistEntry   `yaml:"specialists"`
	StickySession *StickySessionConfig       `yaml:"sticky_session"`
	State       *StateConfig                 `yaml:"state"`
	Maintenance *MaintenanceConfig           `yaml:"maintenance"`
}

// ServerConfig holds HTTP surface settings.
type ServerConfig struct {
	Port                          int    `yaml:"port"`
	PublicModelID                 string `yaml:"public_model_id"`
	AllowProviderModelPassthrough bool   `yaml:"allow_provider_model_passthrough"`
	HealthzPath                   string `yaml:"healthz_path"`
	ReadyzPath                    string `yaml:"readyz_path"`
	DiagnosticsPath               string `yaml:"diagnostics_path"`
}

// AuthConfig holds the bearer-token API key allowlist. An empty Keys list
// disables authentication entirely.
type AuthConfig struct {
	Keys []string `yaml:"keys"`
}

// ProvidersConfig holds upstream credentials for the two supported credential
// families. Model-name based routing picks one of these per call.
type ProvidersConfig struct {
	OpenAI *ProviderCredentials `yaml:"openai"`
	Gemini *ProviderCredentials `yaml:"gemini"`
	// RequestTimeout bounds every upstream call (chat or embedding).
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ProviderCredentials is one named credential set: an API key (read from an
// env var, never stored in YAML) plus an optional base URL override.
type ProviderCredentials struct {
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// PromptsConfig configures the prompt registry.
type PromptsConfig struct {
	Directory  string `yaml:"directory"`
	AutoReload bool   `yaml:"auto_reload"`
	// WatchFS enables the best-effort fsnotify watcher that reloads the
	// registry as soon as the OS reports a write. Independent of
	// AutoReload, which governs the mandatory stat-on-get check.
	WatchFS bool `yaml:"watch_fs"`
}

// OrchestratorConfig names the orchestrator's own prompt key.
type OrchestratorConfig struct {
	PromptKey string `yaml:"prompt_key"`
}

// ClassifierConfig configures the specialist classifier's call shape.
type ClassifierConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// SpecialistEntry is one row of the specialist catalog: domain → model,
// prompt file key, routing hint shown to the classifier, and fallbacks.
type SpecialistEntry struct {
	Label       string   `yaml:"label"`
	RoutingHint string   `yaml:"routing_hint"`
	Model       string   `yaml:"model"`
	PromptKey   string   `yaml:"prompt_key"`
	Fallbacks   []string `yaml:"fallbacks,omitempty"`
}

// StickySessionConfig configures the sticky session store.
type StickySessionConfig struct {
	HistorySize int `yaml:"history_size"`
	MaxSessions int `yaml:"max_sessions"`
}

// StateConfig configures the state subsystem.
type StateConfig struct {
	Enabled              bool          `yaml:"enabled"`
	DSNEnv               string        `yaml:"dsn_env"`
	ConnectTimeout        time.Duration `yaml:"connect_timeout"`
	AutoMigrate           bool          `yaml:"auto_migrate"`
	MinSupportedVersion   int           `yaml:"min_supported_version"`
	MaxSupportedVersion   int           `yaml:"max_supported_version"`
	DecisionModel         string        `yaml:"decision_model"`
	MaxJSONRetries        int           `yaml:"max_json_retries"`
	OnFailure             string        `yaml:"on_failure"` // "silent" | "footer_warning"
	ContextCheckinLimit   int           `yaml:"context_checkin_limit"`
	ContextJournalLimit   int           `yaml:"context_journal_limit"`
	Projection            string        `yaml:"projection"` // "off" | "mirror" | "full"
	ProjectionRoot         string        `yaml:"projection_root"`
	MaxOpenConns          int           `yaml:"max_open_conns"`
	MaxIdleConns          int           `yaml:"max_idle_conns"`
	ConnMaxLifetime       time.Duration `yaml:"conn_max_lifetime"`
}

// MaintenanceConfig configures the background cron sweeps.
type MaintenanceConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // standard 5-field cron expression
}
