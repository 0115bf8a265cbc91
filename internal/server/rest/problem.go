package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Problem represents an RFC 7807 "problem details" response.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ContentTypeProblemJSON is the Content-Type for RFC 7807 problem responses.
const ContentTypeProblemJSON = "application/problem+json"

func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", ContentTypeProblemJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&Problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

func badRequest(w http.ResponseWriter, detail string) {
	writeProblem(w, http.StatusBadRequest, detail)
}

// unauthorized never carries detail: every authentication failure looks
// the same to the client.
func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="intelligence"`)
	writeProblem(w, http.StatusUnauthorized, "")
}

func forbidden(w http.ResponseWriter) {
	writeProblem(w, http.StatusForbidden, "")
}

func notFound(w http.ResponseWriter) {
	writeProblem(w, http.StatusNotFound, "")
}

func internalError(w http.ResponseWriter) {
	writeProblem(w, http.StatusInternalServerError, "")
}

// writeJSON encodes to a buffer first so an encoding failure can still be
// reported as a 500.
func writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		internalError(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
