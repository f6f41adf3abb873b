package api

import "net/http"

func handleFetchSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Service == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SERVICE_NOT_CONFIGURED", "query service is not configured", false, nil)
		return
	}
	rendered, err := deps.Service.Schema(r.Context())
	if err != nil {
		writeAskError(deps, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schema": rendered})
}
