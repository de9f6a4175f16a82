package mux

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"pokernight-server/pkg/apperr"
)

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("could not write JSON response")
	}
}

type errorResponse struct {
	Message    string `json:"message"`
	Kind       string `json:"kind"`
	StatusCode int    `json:"statusCode"`
}

// writeError maps the shared error taxonomy onto HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)

	var statusCode int
	switch kind {
	case apperr.NotFound:
		statusCode = http.StatusNotFound
	case apperr.Unauthorized:
		statusCode = http.StatusUnauthorized
	case apperr.InvalidArgument:
		statusCode = http.StatusBadRequest
	case apperr.InvalidState, apperr.Conflict:
		statusCode = http.StatusConflict
	case apperr.Transient:
		statusCode = http.StatusServiceUnavailable
	default:
		statusCode = http.StatusInternalServerError
	}

	msg := err.Error()
	if statusCode >= 500 {
		logrus.WithError(err).Error("request failed")
		msg = http.StatusText(statusCode)
	}

	writeJSON(w, statusCode, errorResponse{
		Message:    msg,
		Kind:       string(kind),
		StatusCode: statusCode,
	})
}

func decodeRequest(w http.ResponseWriter, r *http.Request, payload interface{}) bool {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") && !strings.HasPrefix(ct, "text/json") {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{
			Message:    http.StatusText(http.StatusUnsupportedMediaType),
			StatusCode: http.StatusUnsupportedMediaType,
		})
		return false
	}

	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		writeError(w, apperr.E(apperr.InvalidArgument, "malformed request body"))
		return false
	}

	return true
}

func remoteAddr(r *http.Request) string {
	parts := strings.Split(r.RemoteAddr, ":")
	if len(parts) == 1 {
		return parts[0]
	}

	return strings.Join(parts[0:len(parts)-1], ":")
}
