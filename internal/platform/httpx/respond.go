// Package httpx provides JSON response helpers with the clubhub
// response envelope.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response body. Status is "success" or "error";
// Code carries a stable machine-readable error identifier on failures.
type Envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// JSON writes an arbitrary payload with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Success writes a success envelope wrapping data.
func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Status: "success", Data: data})
}

// Error writes an error envelope with a stable code and human message.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, Envelope{Status: "error", Message: message, Code: code})
}

// DecodeJSON decodes the request body into target, rejecting unknown fields.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
