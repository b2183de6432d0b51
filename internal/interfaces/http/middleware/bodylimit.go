package middleware

import (
	"fmt"
	"net/http"

	"github.com/turtacn/NMReportChecker/pkg/errors"
)

// BodyLimit caps request bodies at maxBytes.  Requests that declare a larger
// Content-Length are rejected with 413 up front; streamed bodies are cut off
// by http.MaxBytesReader and surface as a read error in the handler.
// A non-positive maxBytes disables the cap.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, errors.ErrCodeReportTooLarge,
					fmt.Sprintf("request body of %d bytes exceeds the limit of %d bytes", r.ContentLength, maxBytes))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

//Personal.AI order the ending
