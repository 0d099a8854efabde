package config

import "time"

// defaultConfig returns the built-in configuration merged underneath every
// operator-supplied gateway.yaml, using a built-in-defaults + mergo-overlay
// pattern: the operator file only needs to specify what differs.
func defaultConfig() *GatewayYAMLConfig {
	return &GatewayYAMLConfig{
		Server: &ServerConfig{
			Port:                          8080,
			PublicModelID:                 "specialist-gateway",
			AllowProviderModelPassthrough: false,
			HealthzPath:                   "/healthz",
			ReadyzPath:                    "/readyz",
			DiagnosticsPath:               "/diagnostics",
		},
		Auth: &AuthConfig{
			Keys: nil,
		},
		Providers: &ProvidersConfig{
			OpenAI:         &ProviderCredentials{APIKeyEnv: "OPENAI_API_KEY"},
			Gemini:         &ProviderCredentials{APIKeyEnv: "GEMINI_API_KEY", BaseURL: "https://generativelanguage.googleapis.com/v1beta"},
			RequestTimeout: 60 * time.Second,
		},
		Prompts: &PromptsConfig{
			Directory:  "prompts",
			AutoReload: true,
			WatchFS:    true,
		},
		Orchestrator: &OrchestratorConfig{
			PromptKey: "orchestrator",
		},
		Classifier: &ClassifierConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.0,
			MaxTokens:   120,
		},
		Specialists: map[string]SpecialistEntry{
			"general": {
				Label:       "General",
				RoutingHint: "anything that doesn't clearly belong to a more specific domain",
				Model:       "gpt-4o-mini",
				PromptKey:   "specialist_general",
			},
			"health": {
				Label:       "Health",
				RoutingHint: "physical health, fitness, symptoms, nutrition",
				Model:       "gpt-4o",
				PromptKey:   "specialist_health",
				Fallbacks:   []string{"gpt-4o-mini"},
			},
			"parenting": {
				Label:       "Parenting",
				RoutingHint: "raising children, childcare, family dynamics with kids",
				Model:       "gpt-4o",
				PromptKey:   "specialist_parenting",
				Fallbacks:   []string{"gpt-4o-mini"},
			},
			"relationships": {
				Label:       "Relationships",
				RoutingHint: "romantic, family, or social relationships",
				Model:       "gpt-4o",
				PromptKey:   "specialist_relationships",
				Fallbacks:   []string{"gpt-4o-mini"},
			},
			"homelab": {
				Label:       "Homelab",
				RoutingHint: "self-hosting, home networking, servers, smart-home devices",
				Model:       "gpt-4o-mini",
				PromptKey:   "specialist_homelab",
			},
			"personal_development": {
				Label:       "Personal development",
				RoutingHint: "habits, goals, productivity, self-improvement",
				Model:       "gpt-4o-mini",
				PromptKey:   "specialist_personal_development",
			},
		},
		StickySession: &StickySessionConfig{
			HistorySize: 3,
			MaxSessions: 4096,
		},
		State: &StateConfig{
			Enabled:             false,
			DSNEnv:              "GATEWAY_DATABASE_URL",
			ConnectTimeout:      5 * time.Second,
			AutoMigrate:         true,
			MinSupportedVersion: 1,
			MaxSupportedVersion: 1,
			DecisionModel:       "gpt-4o-mini",
			MaxJSONRetries:      2,
			OnFailure:           "footer_warning",
			ContextCheckinLimit: 5,
			ContextJournalLimit: 5,
			Projection:          "mirror",
			ProjectionRoot:      "state",
			MaxOpenConns:        10,
			MaxIdleConns:        5,
			ConnMaxLifetime:     30 * time.Minute,
		},
		Maintenance: &MaintenanceConfig{
			Enabled:  true,
			Schedule: "*/5 * * * *",
		},
	}
}
