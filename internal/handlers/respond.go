package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"
)

const (
	codeInvalidJSON     = "invalid_json"
	codeInvalidRequest  = "invalid_request"
	codeRateLimited     = "rate_limited"
	codeUnavailable     = "pronunciation_unavailable"
	codeReportNotStored = "report_not_recorded"
	codeInternal        = "internal_server_error"
)

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	Field             string `json:"field,omitempty"`
	Reason            string `json:"reason,omitempty"`
	Retryable         *bool  `json:"retryable,omitempty"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}

// writeJSON is a small helper to send JSON responses consistently.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body errorResponse) {
	writeJSON(w, status, body)
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(retryAfter / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeError(w, http.StatusTooManyRequests, errorResponse{
		Error:             codeRateLimited,
		Message:           "too many requests, try again later",
		RetryAfterSeconds: secs,
	})
}

// decodeJSON reads a JSON body into v. The returned response is ready to
// send when err is non-nil.
func decodeJSON(r *http.Request, v any) (int, errorResponse, error) {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return http.StatusRequestEntityTooLarge, errorResponse{
				Error:   codeInvalidRequest,
				Message: "request body too large",
			}, err
		}
		return http.StatusBadRequest, errorResponse{
			Error:   codeInvalidJSON,
			Message: "request body must be a JSON object",
		}, err
	}
	return 0, errorResponse{}, nil
}

// clientIdentity is the rate-limit identity: the client IP without port.
// chi's RealIP has already replaced RemoteAddr from proxy headers.
func clientIdentity(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	return r.RemoteAddr
}

func boolPtr(b bool) *bool { return &b }
