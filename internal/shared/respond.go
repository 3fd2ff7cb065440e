package shared

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// RespondError writes a structured, client-safe rejection body. Internal
// detail never crosses this boundary; callers pass a message suitable for
// the request originator.
func RespondError(w http.ResponseWriter, status int, err error, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Kind: ErrorKind(err), Message: message})
}

// RespondJSON writes an arbitrary JSON payload.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
