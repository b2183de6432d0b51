package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/turtacn/NMReportChecker/pkg/errors"
)

const (
	defaultListLimit = 20
	maxListLimit     = 500
)

// parseLimit reads the limit query parameter.  Missing or malformed values
// fall back to the default; large values are capped.
func parseLimit(r *http.Request) int {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}

// writeJSON writes a JSON response with the given status code.  The body is
// encoded before the header goes out; an unencodable payload becomes a 500.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		w.WriteHeader(statusCode)
		return
	}
	body, err := json.Marshal(data)
	if err != nil {
		statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{
			Code:    errors.ErrCodeSerialization.String(),
			Message: errors.DefaultMessageForCode(errors.ErrCodeSerialization),
		})
	}
	w.WriteHeader(statusCode)
	_, _ = w.Write(append(body, '\n'))
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeAppError maps err to its HTTP status.  Errors without an application
// code are reported as a masked internal error.
func writeAppError(w http.ResponseWriter, err error) {
	if stderrors.Is(err, context.DeadlineExceeded) {
		writeJSON(w, errors.HTTPStatusForCode(errors.ErrCodeTimeout), ErrorResponse{
			Code:    errors.ErrCodeTimeout.String(),
			Message: errors.DefaultMessageForCode(errors.ErrCodeTimeout),
		})
		return
	}
	var ae *errors.AppError
	if !stderrors.As(err, &ae) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    errors.ErrCodeInternal.String(),
			Message: errors.DefaultMessageForCode(errors.ErrCodeInternal),
		})
		return
	}
	msg := ae.Message
	if ae.Detail != "" {
		msg = msg + ": " + ae.Detail
	}
	writeJSON(w, errors.HTTPStatusForCode(ae.Code), ErrorResponse{Code: ae.Code.String(), Message: msg})
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.InvalidParam("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case stderrors.As(err, &maxErr):
			return errors.New(errors.ErrCodeReportTooLarge,
				fmt.Sprintf("request body exceeds the limit of %d bytes", maxErr.Limit))
		case stderrors.Is(err, io.EOF):
			return errors.InvalidParam("request body is required")
		default:
			return errors.InvalidParam("malformed JSON body").WithDetail(err.Error())
		}
	}
	return nil
}

//Personal.AI order the ending
