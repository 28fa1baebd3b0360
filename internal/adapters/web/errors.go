package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"supply-console/internal/api"
	"supply-console/internal/core"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, errorResponse{Error: message, Code: code}, status)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, resp errorResponse, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp.RequestID = requestIDFromContext(r.Context())
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps a service error to an HTTP status and code, with the
// message rendered in the console language.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	resp := errorResponse{Error: core.Message(h.opts.Language, err), Code: code}
	var fe *core.FormError
	if errors.As(err, &fe) {
		resp.Fields = fe.Fields
	}
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("request_id", requestIDFromContext(r.Context())).Error("request failed")
	}
	writeErrorResponse(w, r, resp, status)
}

func classify(err error) (int, string) {
	var (
		ve *core.ValidationError
		fe *core.FormError
		ie *core.IndexError
		te *core.TransitionError
		se *api.ServerError
		ne *api.NetworkError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &fe):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR"
	case errors.As(err, &ie):
		return http.StatusBadRequest, "BAD_INDEX"
	case errors.As(err, &te):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, core.ErrSubmitInProgress):
		return http.StatusConflict, "BUSY"
	case api.IsAuth(err):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case api.IsNotFound(err):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &se):
		if se.Status >= 400 && se.Status < 500 {
			return se.Status, "UPSTREAM_REJECTED"
		}
		return http.StatusBadGateway, "UPSTREAM_ERROR"
	case errors.As(err, &ne):
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}
