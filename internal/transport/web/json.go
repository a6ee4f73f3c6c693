package web

import (
	"encoding/json"
	"net/http"
)

const maxBodyBytes = 1_048_576

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data) //nolint:wrapcheck
}

func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	return decoder.Decode(data) //nolint:wrapcheck
}

func jsonResponse(w http.ResponseWriter, status int, data any) error {
	type envelope struct {
		Data any `json:"data"`
	}

	return writeJSON(w, status, &envelope{Data: data})
}

func writeJSONError(w http.ResponseWriter, status int, message string) error {
	return writeJSONFieldsError(w, status, message, nil)
}

func writeJSONFieldsError(w http.ResponseWriter, status int, message string, fields map[string][]string) error {
	type envelope struct {
		Success bool                `json:"success"`
		Message string              `json:"message"`
		Status  int                 `json:"status"`
		Fields  map[string][]string `json:"fields,omitempty"`
	}

	return writeJSON(w, status, &envelope{
		Success: false,
		Message: message,
		Status:  status,
		Fields:  fields,
	})
}
