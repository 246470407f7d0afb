package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chazu/upfit/pkg/engine"
	"github.com/chazu/upfit/pkg/layout"
	"github.com/chazu/upfit/pkg/model"
)

// Error codes of the JSON error envelope.
const (
	CodeBadRequest    = "bad_request"
	CodeInvalid       = "invalid_project"
	CodeUnresolved    = "unresolved_reference"
	CodeBadBlueprint  = "invalid_blueprint"
	CodeScript        = "script_error"
	CodeUnknownFormat = "unknown_format"
	CodeInternal      = "internal_error"
)

// apiError is an error with an HTTP status and envelope code.
type apiError struct {
	status  int
	code    string
	message string
	details any
}

func (e *apiError) Error() string { return e.message }

func badRequest(msg string) *apiError {
	return &apiError{status: http.StatusBadRequest, code: CodeBadRequest, message: msg}
}

func invalidProject(errs []model.ValidationError) *apiError {
	details := make([]map[string]string, 0, len(errs))
	for _, e := range errs {
		details = append(details, map[string]string{"path": e.Path, "message": e.Message})
	}
	return &apiError{status: http.StatusUnprocessableEntity, code: CodeInvalid, message: "project failed validation", details: details}
}

func scriptErrors(errs []engine.EvalError) *apiError {
	details := make([]map[string]any, 0, len(errs))
	for _, e := range errs {
		details = append(details, map[string]any{"line": e.Line, "message": e.Message})
	}
	return &apiError{status: http.StatusUnprocessableEntity, code: CodeScript, message: "layout script failed", details: details}
}

// toAPIError maps evaluation failures to responses: unresolved references
// and bad blueprints are the caller's fault, anything else is ours.
func toAPIError(err error) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}
	var re *layout.ResolutionError
	if errors.As(err, &re) {
		return &apiError{status: http.StatusUnprocessableEntity, code: CodeUnresolved, message: err.Error(),
			details: map[string]string{"kind": re.Kind.String(), "id": re.ID, "instanceId": re.InstanceID}}
	}
	var be *layout.BlueprintError
	if errors.As(err, &be) {
		return &apiError{status: http.StatusUnprocessableEntity, code: CodeBadBlueprint, message: err.Error()}
	}
	return &apiError{status: http.StatusInternalServerError, code: CodeInternal, message: "internal error"}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	ae := toAPIError(err)
	body := map[string]any{"error": ae.code, "error_description": ae.message}
	if ae.details != nil {
		body["details"] = ae.details
	}
	writeJSON(w, ae.status, body)
}
