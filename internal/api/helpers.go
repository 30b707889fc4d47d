package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Joseph-k-iype/multi-agent/pkg/schema"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps an error to an HTTP status and writes the structured
// error body.
func writeError(w http.ResponseWriter, err error) {
	var werr *schema.WorkflowError
	if !errors.As(err, &werr) {
		werr = schema.NewError("INTERNAL", err.Error())
	}
	writeJSON(w, statusFor(werr.Code), map[string]any{"error": werr})
}

// writeBadRequest reports a malformed request body.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, schema.NewError(schema.ErrCodeInvalidFormat, message))
}

// statusFor maps engine error codes to HTTP statuses.
func statusFor(code string) int {
	switch code {
	case schema.ErrCodeNotFound:
		return http.StatusNotFound
	case schema.ErrCodeConflict:
		return http.StatusConflict
	case schema.ErrCodeExecution:
		return http.StatusBadGateway
	case schema.ErrCodeValidation, schema.ErrCodeEmptyGraph, schema.ErrCodeNoEntryPoint,
		schema.ErrCodeNoExitPoint, schema.ErrCodeCycleDetected, schema.ErrCodeInvalidFormat,
		schema.ErrCodeInterpolation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
