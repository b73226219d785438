package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fundwatch/fundwatch-backend/internal/api/response"
	"github.com/fundwatch/fundwatch-backend/internal/eastmoney"
)

// ValidateFundCode is a middleware that validates the "code" URL parameter
// is a well-formed 6-digit fund code before the handler runs. Malformed
// codes are rejected with 400 so handlers and services can assume a clean
// parameter.
func ValidateFundCode(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if !eastmoney.IsValidFundCode(code) {
			response.RespondError(w, http.StatusBadRequest, "invalid fund code", "fund code must be 6 digits")
			return
		}
		next.ServeHTTP(w, r)
	})
}
