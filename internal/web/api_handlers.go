package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// apiListOffices returns every office in registry order.
func (s *Server) apiListOffices(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, s.registry.All(), http.StatusOK)
}

// apiGetOffice returns one office.
func (s *Server) apiGetOffice(w http.ResponseWriter, r *http.Request) {
	o, ok := s.registry.Lookup(r.PathValue("id"))
	if !ok {
		apiError(w, "office not found", http.StatusNotFound)
		return
	}
	apiJSON(w, o, http.StatusOK)
}
