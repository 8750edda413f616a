package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody is the JSON shape of every error response produced at the
// admission boundary.
type errorBody struct {
	Detail string `json:"detail"`
}

// writeError writes a JSON error response with the given status and detail.
func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Detail: detail})
}
