package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
)

// encodingFailure is the body served when a payload cannot be marshaled.
// Built at startup from a known-good envelope; a failure here is a
// programming error worth dying for.
var encodingFailure = func() []byte {
	data, err := json.Marshal(models.Error("Internal server error"))
	if err != nil {
		panic("api: cannot marshal fallback error envelope: " + err.Error())
	}
	return data
}()

// writeJSON marshals payload before touching the ResponseWriter, so an
// encoding failure can still downgrade the status line to a 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Server.writeJSON: failed to marshal response", "error", err)
		data = encodingFailure
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Error("Server.writeJSON: failed to write response", "error", err)
	}
}
