package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/oracleconsulting/lightpoint-ingest/internal/api"
	"github.com/oracleconsulting/lightpoint-ingest/internal/sanitize"
)

type SanitizeHandler struct{}

func NewSanitizeHandler() *SanitizeHandler {
	return &SanitizeHandler{}
}

type SanitizeRequest struct {
	Text              string `json:"text"`
	RedactNames       bool   `json:"redact_names"`
	RedactClientRefs  bool   `json:"redact_client_refs"`
	PreserveStructure bool   `json:"preserve_structure"`
}

type SanitizeResponse struct {
	Sanitized      string   `json:"sanitized"`
	RedactionCount int      `json:"redaction_count"`
	RedactedTypes  []string `json:"redacted_types"`
}

// Sanitize runs the PII redaction engine over the request text.
func (h *SanitizeHandler) Sanitize(w http.ResponseWriter, r *http.Request) {
	var req SanitizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Text == "" {
		api.Error(w, http.StatusBadRequest, "text is required")
		return
	}

	result := sanitize.Sanitize(req.Text, sanitize.Options{
		RedactNames:       req.RedactNames,
		RedactClientRefs:  req.RedactClientRefs,
		PreserveStructure: req.PreserveStructure,
	})

	api.Success(w, http.StatusOK, SanitizeResponse{
		Sanitized:      result.Sanitized,
		RedactionCount: result.RedactionCount,
		RedactedTypes:  result.RedactedTypes,
	})
}
