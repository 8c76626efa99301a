package middleware

import (
	"encoding/json"
	"net/http"
)

// writeMessage writes a {"message": ...} JSON body with status.
func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
