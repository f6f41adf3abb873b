package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/askdb/askdb/internal/ask"
)

const maxQuestionLength = 1000

type generateQueryRequest struct {
	UserQuery string `json:"user_query"`
}

func handleGenerateQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Service == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SERVICE_NOT_CONFIGURED", "query service is not configured", false, nil)
		return
	}

	var request generateQueryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.UserQuery) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "USER_QUERY_REQUIRED", "user_query is required", false, nil)
		return
	}
	if utf8.RuneCountInString(request.UserQuery) > maxQuestionLength {
		writeError(r.Context(), w, http.StatusBadRequest, "USER_QUERY_TOO_LONG", "user_query exceeds 1000 characters", false, nil)
		return
	}

	result, err := deps.Service.Ask(r.Context(), request.UserQuery)
	if err != nil {
		writeAskError(deps, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeAskError maps a pipeline failure onto the error envelope, logging it
// with context first.
func writeAskError(deps Dependencies, w http.ResponseWriter, r *http.Request, err error) {
	var askErr *ask.Error
	if !errors.As(err, &askErr) {
		if deps.Logger != nil {
			deps.Logger.ErrorContext(r.Context(), "unexpected pipeline failure", slog.String("error", err.Error()))
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL", "internal error", false, nil)
		return
	}
	if deps.Logger != nil {
		deps.Logger.WarnContext(r.Context(), "request failed",
			slog.String("code", askErr.Code()),
			slog.String("rule", askErr.Rule),
			slog.String("error", askErr.Error()))
	}
	var extra map[string]any
	if askErr.Rule != "" {
		extra = map[string]any{"rule": askErr.Rule}
	}
	writeError(r.Context(), w, askErr.HTTPStatus(), askErr.Code(), askErr.Error(), askErr.Retryable(), extra)
}
