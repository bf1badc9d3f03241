package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harborops/quayplan/internal/domain/shared"
)

// errorBody is the wire shape of every failed response
type errorBody struct {
	Error struct {
		Kind    string                 `json:"kind"`
		Code    string                 `json:"code,omitempty"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details,omitempty"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain error kinds to HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var body errorBody

	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
		body.Error.Kind = string(shared.KindTimeout)
		body.Error.Message = "operation timed out"
		writeJSON(w, status, body)
		return
	}

	var de *shared.Error
	if errors.As(err, &de) {
		body.Error.Kind = string(de.Kind)
		body.Error.Code = de.Code
		body.Error.Message = de.Message
		body.Error.Details = de.Details
		status = statusForKind(de.Kind)
	} else {
		body.Error.Kind = string(shared.KindTransientStore)
		body.Error.Message = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}

func statusForKind(kind shared.ErrorKind) int {
	switch kind {
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindTimeConflict, shared.KindConstraintHard:
		return http.StatusConflict
	case shared.KindNoCompatibleBerth, shared.KindNoSlotFound:
		return http.StatusUnprocessableEntity
	case shared.KindTimeout:
		return http.StatusGatewayTimeout
	case shared.KindTransientStore, shared.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, into interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return shared.ValidationError("body", err.Error())
	}
	return nil
}
