package gateway

import (
	"chat-hub/errors"
	"encoding/json"
	"fmt"
	"net/http"
)

type errorBody struct {
	Message string `json:"message"`
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.log.Debug("Unable to write response", "error", err)
	}
}

// writeError hides the detail of unexpected failures from the client.
func (g *Gateway) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.MapToHTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		g.log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "internal server error"
	}
	g.writeJSON(w, status, errorBody{Message: message})
}

func (g *Gateway) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, g.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.ErrPayloadTooLarge
		}
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return nil
}
