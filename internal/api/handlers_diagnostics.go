package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// healthzBody is always 200: it answers "is the process alive", not
// "is the process ready to serve state-backed turns".
type healthzBody struct {
	Status string `json:"status"`
}

type readyzBody struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type diagnosticsSpecialist struct {
	Domain    string   `json:"domain"`
	Model     string   `json:"model"`
	Fallbacks []string `json:"fallbacks,omitempty"`
	PromptKey string   `json:"prompt_key"`
}

type diagnosticsBody struct {
	PublicModelID  string                  `json:"public_model_id"`
	Specialists    []diagnosticsSpecialist `json:"specialists"`
	PromptSources  map[string]string       `json:"prompt_sources"`
	StateSubsystem string                  `json:"state_subsystem"`
	SchemaVersion  int                     `json:"schema_version,omitempty"`
}

// handleHealthz implements GET /healthz: liveness only, always 200.
func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, healthzBody{Status: "ok"})
}

// handleReadyz implements GET /readyz: 200 when the state store is reachable
// or the state subsystem is disabled, 503 when it is configured but
// unreachable.
func (s *Server) handleReadyz(c *gin.Context) {
	if s.dbClient == nil {
		c.JSON(http.StatusOK, readyzBody{Status: "ok", Reason: "state subsystem disabled"})
		return
	}

	status, err := s.dbClient.Health(c.Request.Context())
	if err != nil || status == nil || !status.Reachable {
		c.JSON(http.StatusServiceUnavailable, readyzBody{Status: "unavailable", Reason: "state store unreachable"})
		return
	}
	c.JSON(http.StatusOK, readyzBody{Status: "ok"})
}

// handleDiagnostics implements GET /diagnostics: the configured specialist
// models, prompt file resolution, and (when the state subsystem is enabled)
// schema version.
func (s *Server) handleDiagnostics(c *gin.Context) {
	entries := s.catalog.All()
	specialists := make([]diagnosticsSpecialist, len(entries))
	for i, e := range entries {
		specialists[i] = diagnosticsSpecialist{
			Domain:    string(e.Domain),
			Model:     e.Model,
			Fallbacks: e.Fallbacks,
			PromptKey: e.PromptKey,
		}
	}

	body := diagnosticsBody{
		PublicModelID: s.publicModelID(),
		Specialists:   specialists,
		PromptSources: s.prompts.Sources(),
	}

	if s.dbClient == nil {
		body.StateSubsystem = "disabled"
	} else if status, err := s.dbClient.Health(c.Request.Context()); err == nil && status != nil {
		body.StateSubsystem = "enabled"
		body.SchemaVersion = status.SchemaVersion
	} else {
		body.StateSubsystem = "enabled (unreachable)"
	}

	c.JSON(http.StatusOK, body)
}
