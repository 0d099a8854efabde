package config

import (
	"fmt"
	"os"
	"regexp"
)

var specialistKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateAll runs every section validator and collects every failure before
// returning, so an operator sees all the problems with their gateway.yaml in
// one pass instead of fixing them one at a time.
func ValidateAll(cfg *GatewayYAMLConfig) error {
	var errs []error
	errs = append(errs, validateServer(cfg.Server)...)
	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validatePrompts(cfg.Prompts)...)
	errs = append(errs, validateSpecialists(cfg.Specialists)...)
	errs = append(errs, validateStickySession(cfg.StickySession)...)
	errs = append(errs, validateState(cfg.State)...)
	errs = append(errs, validateMaintenance(cfg.Maintenance)...)

	if len(errs) == 0 {
		return nil
	}
	msg := fmt.Sprintf("%d configuration error(s):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%w: %s", ErrValidationFailed, msg)
}

func validateServer(s *ServerConfig) []error {
	var errs []error
	if s == nil {
		return []error{NewValidationError("server", "section is required")}
	}
	if s.Port <= 0 || s.Port > 65535 {
		errs = append(errs, NewValidationError("server.port", "must be between 1 and 65535"))
	}
	if s.PublicModelID == "" {
		errs = append(errs, NewValidationError("server.public_model_id", "must not be empty"))
	}
	return errs
}

func validateProviders(p *ProvidersConfig) []error {
	var errs []error
	if p == nil {
		return []error{NewValidationError("providers", "section is required")}
	}
	if p.OpenAI == nil && p.Gemini == nil {
		errs = append(errs, NewValidationError("providers", "at least one of openai or gemini must be configured"))
	}
	if p.OpenAI != nil && p.OpenAI.APIKeyEnv == "" {
		errs = append(errs, NewValidationError("providers.openai.api_key_env", "must not be empty"))
	}
	if p.Gemini != nil && p.Gemini.APIKeyEnv == "" {
		errs = append(errs, NewValidationError("providers.gemini.api_key_env", "must not be empty"))
	}
	if p.RequestTimeout <= 0 {
		errs = append(errs, NewValidationError("providers.request_timeout", "must be positive"))
	}
	return errs
}

func validatePrompts(p *PromptsConfig) []error {
	if p == nil {
		return []error{NewValidationError("prompts", "section is required")}
	}
	if p.Directory == "" {
		return []error{NewValidationError("prompts.directory", "must not be empty")}
	}
	return nil
}

func validateSpecialists(specialists map[string]SpecialistEntry) []error {
	var errs []error
	if len(specialists) == 0 {
		return []error{NewValidationError("specialists", "at least one domain must be configured")}
	}
	if _, ok := specialists["general"]; !ok {
		errs = append(errs, NewValidationError("specialists.general", "the \"general\" fallback domain is required"))
	}
	for key, entry := range specialists {
		if !specialistKeyPattern.MatchString(key) {
			errs = append(errs, NewValidationError(fmt.Sprintf("specialists.%s", key), "domain key must be lowercase snake_case"))
		}
		if entry.Model == "" {
			errs = append(errs, NewValidationError(fmt.Sprintf("specialists.%s.model", key), "must not be empty"))
		}
		if entry.PromptKey == "" {
			errs = append(errs, NewValidationError(fmt.Sprintf("specialists.%s.prompt_key", key), "must not be empty"))
		}
	}
	return errs
}

func validateStickySession(s *StickySessionConfig) []error {
	var errs []error
	if s == nil {
		return []error{NewValidationError("sticky_session", "section is required")}
	}
	if s.HistorySize <= 0 {
		errs = append(errs, NewValidationError("sticky_session.history_size", "must be positive"))
	}
	if s.MaxSessions <= 0 {
		errs = append(errs, NewValidationError("sticky_session.max_sessions", "must be positive"))
	}
	return errs
}

func validateState(s *StateConfig) []error {
	var errs []error
	if s == nil {
		return []error{NewValidationError("state", "section is required")}
	}
	if !s.Enabled {
		return nil
	}
	if s.DSNEnv == "" {
		errs = append(errs, NewValidationError("state.dsn_env", "must not be empty when state is enabled"))
	} else if os.Getenv(s.DSNEnv) == "" {
		errs = append(errs, NewValidationError("state.dsn_env", fmt.Sprintf("environment variable %q is not set", s.DSNEnv)))
	}
	if s.MinSupportedVersion <= 0 || s.MaxSupportedVersion < s.MinSupportedVersion {
		errs = append(errs, NewValidationError("state.min_supported_version", "must be positive and no greater than max_supported_version"))
	}
	if s.MaxJSONRetries < 0 {
		errs = append(errs, NewValidationError("state.max_json_retries", "must not be negative"))
	}
	if s.OnFailure != "silent" && s.OnFailure != "footer_warning" {
		errs = append(errs, NewValidationError("state.on_failure", `must be "silent" or "footer_warning"`))
	}
	if s.Projection != "off" && s.Projection != "mirror" && s.Projection != "full" {
		errs = append(errs, NewValidationError("state.projection", `must be "off", "mirror", or "full"`))
	}
	if s.MaxIdleConns > s.MaxOpenConns {
		errs = append(errs, NewValidationError("state.max_idle_conns", "must not exceed max_open_conns"))
	}
	return errs
}

func validateMaintenance(m *MaintenanceConfig) []error {
	if m == nil {
		return []error{NewValidationError("maintenance", "section is required")}
	}
	if m.Enabled && m.Schedule == "" {
		return []error{NewValidationError("maintenance.schedule", "must not be empty when maintenance is enabled")}
	}
	return nil
}
