// Copyright © 2024 The Quill authors

package httpapi

import (
	"context"
	"net/http"

	"github.com/luthersystems/quill/query"
	"github.com/luthersystems/quill/service"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var errBadRequest = errors.Base("bad request")

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// errorCodes maps the service's sentinel errors to HTTP statuses and stable
// codes.  The first match wins.
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{errBadRequest, http.StatusBadRequest, "bad_request"},
	{service.ErrUnknownSnapshot, http.StatusNotFound, "unknown_snapshot"},
	{service.ErrStaleSnapshot, http.StatusConflict, "stale_snapshot"},
	{query.ErrNoSymbolAtPosition, http.StatusNotFound, "no_symbol"},
	{query.ErrInvalidName, http.StatusUnprocessableEntity, "invalid_name"},
	{query.ErrNotRenamable, http.StatusUnprocessableEntity, "not_renamable"},
	{query.ErrNameConflict, http.StatusConflict, "name_conflict"},
	{query.ErrInvalidEdit, http.StatusUnprocessableEntity, "invalid_edit"},
	{service.ErrInternalInconsistency, http.StatusInternalServerError, "internal_inconsistency"},
	{context.Canceled, 499, "canceled"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

func classify(err error) (int, string) {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.status, c.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	event := zerolog.Ctx(r.Context()).Debug()
	if status >= http.StatusInternalServerError {
		event = zerolog.Ctx(r.Context()).Error()
	}
	event.Err(err).Str("code", code).Msg("request failed")
	writeJSON(w, status, ErrorResponse{
		Error:   err.Error(),
		Code:    code,
		Details: errors.AllDetails(err),
	})
}
