package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes the standard error body {"error": code, "message": msg}
// with a machine-readable code and the correct Content-Type.
func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": msg})
}
