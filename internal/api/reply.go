package api

import (
	"encoding/json"
	"net/http"

	"github.com/OsbornePro/quickcopy/internal/window"
)

// Command names, as invoked by the main window.
const (
	CmdOpen  = "open_quick_copy_window"
	CmdFetch = "get_quick_copy_credential"
	CmdClose = "close_quick_copy_window"
)

// NoCredentialMessage is the error string returned when nothing is pending.
const NoCredentialMessage = "No credential data available"

// OpenRequest is the body of open_quick_copy_window.
type OpenRequest struct {
	CredentialJSON *string `json:"credential_json"`
}

// Reply is the body of every command response. Errors cross the boundary as
// a flat string only.
type Reply struct {
	OK             bool         `json:"ok"`
	CredentialJSON *string      `json:"credential_json,omitempty"`
	Window         window.State `json:"window,omitempty"`
	Error          string       `json:"error,omitempty"`
}

func writeReply(w http.ResponseWriter, status int, r Reply) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(r)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeReply(w, status, Reply{OK: false, Error: msg})
}
