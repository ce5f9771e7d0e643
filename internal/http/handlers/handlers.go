package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vedx/vedx-site/internal/http/response"
)

const maxBodyBytes = 1 << 20

var errBadJSON = errors.New("invalid JSON")

// decodeJSON reads a single JSON object, rejecting oversized or malformed bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return errBadJSON
	}
	return nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		response.BadRequest(w, "Request body is too large")
		return nil, false
	}
	return body, true
}
