package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPErrorAdapter writes classified errors as JSON responses for the watch server.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter creates a new HTTP error adapter. A nil logger uses slog.Default.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse is the JSON error payload.
type HTTPErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

// StatusCodeFor maps an error to an HTTP status code. Unknown errors map to 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	c, ok := AsClassified(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch c.Category() {
	case CategoryValidation, CategoryConfig, CategoryParse:
		return http.StatusBadRequest
	case CategoryAuth:
		return http.StatusUnauthorized
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryPart:
		return http.StatusUnprocessableEntity
	case CategoryNetwork, CategoryGit, CategoryForge:
		return http.StatusBadGateway
	case CategoryRuntime:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a JSON error response and logs it.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := a.StatusCodeFor(err)
	payload := HTTPErrorResponse{Error: "internal error"}
	if err != nil {
		payload.Error = err.Error()
	}
	if c, ok := AsClassified(err); ok {
		payload.Error = c.Message()
		payload.Code = string(c.Category())
		payload.Retryable = c.CanRetry()
		if len(c.Context()) > 0 {
			payload.Details = c.Context()
		}
	}
	a.logger.Log(r.Context(), slog.LevelWarn, "request failed",
		slog.String("path", r.URL.Path), slog.Int("status", status), slog.Any("error", err))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
