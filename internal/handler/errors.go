package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pkordes/tripmate/internal/domain"
	"github.com/pkordes/tripmate/internal/identity"
)

// requestError is a failure detected by the handler before reaching the
// service layer: a malformed path, query, or body.
type requestError struct {
	status  int
	code    string
	message string
	field   string
}

func (e *requestError) Error() string { return e.message }

// badRequest returns a 400 for input that cannot be parsed at all.
func badRequest(field, format string, args ...any) *requestError {
	return &requestError{
		status:  http.StatusBadRequest,
		code:    "bad_request",
		message: fmt.Sprintf(format, args...),
		field:   field,
	}
}

// unprocessable returns a 422 for well-formed input that is missing or
// mistyped fields.
func unprocessable(field, format string, args ...any) *requestError {
	return &requestError{
		status:  http.StatusUnprocessableEntity,
		code:    "validation_error",
		message: fmt.Sprintf(format, args...),
		field:   field,
	}
}

// errorBody builds the ErrorResponse for a single failure.
func errorBody(code, message, field string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message, Field: field}}
}

// writeError maps err onto a status code and an ErrorResponse body.
//
// Validation failures carry the offending field. Storage failures are logged
// and reported with a generic message so driver details never reach clients.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		reqErr   *requestError
		fieldErr *domain.FieldError
		notFound *domain.NotFoundError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, reqErr.status, errorBody(reqErr.code, reqErr.message, reqErr.field))
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge,
			errorBody("payload_too_large", fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), ""))
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("validation_error", fieldErr.Message, fieldErr.Field))
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorBody("not_found", notFound.Error(), ""))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not_found", "not found", ""))
	case errors.Is(err, identity.ErrNoDevice):
		writeJSON(w, http.StatusBadRequest, errorBody("missing_device", "the X-Device-ID header is required", ""))
	case errors.Is(err, domain.ErrStore):
		s.logger.ErrorContext(r.Context(), "storage failure", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody("store_unavailable", "storage unavailable", ""))
	default:
		s.logger.ErrorContext(r.Context(), "unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal_error", "internal server error", ""))
	}
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // the status line is already on the wire
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads the request body into v.
// An empty or unparsable body is a 400; a value of the wrong type is a 422
// naming the field.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		tooLarge  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return badRequest("", "request body is required")
	case errors.As(err, &tooLarge):
		return err
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return badRequest("", "malformed JSON body")
	case errors.As(err, &typeErr):
		return unprocessable(typeErr.Field, "%s must be a %s", typeErr.Field, typeErr.Type)
	default:
		return unprocessable("", "invalid request body: %v", err)
	}
}
