// Package response writes the service's JSON envelope. Success payloads
// carry "success": true plus operation-specific fields; failures carry
// "success": false and a human-readable message.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSON merges the payload fields into a success envelope and writes it
// with the given status code.
func JSON(w http.ResponseWriter, status int, payload map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	write(w, status, body)
}

// Message is shorthand for a success envelope whose only field is a message.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{"message": message})
}

// Error writes a failure envelope.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, map[string]any{"success": false, "message": message})
}

func write(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response", "error", err)
	}
}
