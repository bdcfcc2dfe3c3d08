// Package httpserver contains HTTP handlers and middleware.
//
// It exposes the REST API of the service: document analysis uploads,
// video fact-checking, and the chat assistant. The package keeps HTTP
// concerns (multipart parsing, content negotiation, status mapping)
// separate from the use case layer.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flookyhq/flooky-tools/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrUpstreamOverloaded):
		code = http.StatusServiceUnavailable
		codeStr = "UPSTREAM_OVERLOADED"
	case errors.Is(err, domain.ErrUpstreamFailure):
		code = http.StatusBadGateway
		codeStr = "UPSTREAM_FAILURE"
	case errors.Is(err, domain.ErrExtractionFailed):
		code = http.StatusUnprocessableEntity
		codeStr = "EXTRACTION_FAILED"
	case errors.Is(err, domain.ErrTranscribeFailed):
		code = http.StatusUnprocessableEntity
		codeStr = "TRANSCRIBE_FAILED"
	case errors.Is(err, domain.ErrDownloadFailed):
		code = http.StatusUnprocessableEntity
		codeStr = "DOWNLOAD_FAILED"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}

// writeResult renders a processor envelope. Failed envelopes keep the
// message in the body but surface as HTTP 500 so clients can branch on
// status alone.
func writeResult(w http.ResponseWriter, res domain.ProcessResult) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, res)
}
