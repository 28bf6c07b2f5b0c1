// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/loopers/commerce-api/internal/user"
	"github.com/loopers/commerce-api/pkg/errutil"
)

// Error is the body of every failed response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Codes for failures detected by the HTTP layer itself.
const (
	codeInvalidBody      = "INVALID_BODY"
	codeRouteNotFound    = "ROUTE_NOT_FOUND"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

const internalMessage = "internal server error"

// statusFor maps a failure kind to its HTTP status.
func statusFor(kind user.Kind) int {
	switch kind {
	case user.KindEmptyInput, user.KindFormatInvalid, user.KindLengthInvalid,
		user.KindContainsBirthday, user.KindBadRequest:
		return http.StatusBadRequest
	case user.KindUnauthorized:
		return http.StatusUnauthorized
	case user.KindNotFound:
		return http.StatusNotFound
	case user.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // best-effort write; the client may be gone
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

// writeFailure translates err to a response. Only the message of a known
// kind is exposed; anything else becomes a generic 500.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	kind := user.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		attrs := append(errutil.Attrs(err),
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestIDFrom(r.Context()),
		)
		s.logger.ErrorContext(r.Context(), "request failed", attrs...)
		writeError(w, status, string(user.KindInternal), internalMessage)
		return
	}

	writeError(w, status, string(kind), err.Error())
}
