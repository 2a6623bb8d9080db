package middleware

import (
	"net/http"

	appErrors "github.com/frahmantamala/hr-approvals/internal"
	"github.com/frahmantamala/hr-approvals/pkg/logger"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderCompanyID = "X-Company-ID"
)

// UserContext stores the caller identity taken from the X-User-ID and
// X-Company-ID headers. Authentication happens in front of this service.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(HeaderUserID)
		companyID := r.Header.Get(HeaderCompanyID)

		ctx := appErrors.ContextWithIdentity(r.Context(), userID, companyID)
		ctx = logger.With(ctx, "user_id", userID, "company_id", companyID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
