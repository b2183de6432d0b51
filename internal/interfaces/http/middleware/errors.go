package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/turtacn/NMReportChecker/pkg/errors"
)

// writeError writes the API error body for failures raised before a handler runs.
func writeError(w http.ResponseWriter, code errors.ErrorCode, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(errors.HTTPStatusForCode(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code.String(),
		"message": message,
	})
}

//Personal.AI order the ending
