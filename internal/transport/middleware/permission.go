package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	appErrors "github.com/frahmantamala/hr-approvals/internal"
	"github.com/frahmantamala/hr-approvals/internal/permission"
)

type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, companyID string, code permission.Code) (bool, error)
}

// RequirePermission lets the request through only when the caller holds code
// in the company, with any scope.
func RequirePermission(checker PermissionChecker, code permission.Code, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := appErrors.UserIDFromContext(r.Context())
			companyID := appErrors.CompanyIDFromContext(r.Context())
			if userID == "" || companyID == "" {
				writeAppError(w, appErrors.ErrMissingIdentity)
				return
			}

			ok, err := checker.HasPermission(r.Context(), userID, companyID, code)
			if err != nil {
				logger.Error("permission check failed", "user_id", userID, "permission_code", code, "error", err)
				writeAppError(w, appErrors.NewInternalError("internal server error", err))
				return
			}
			if !ok {
				logger.Warn("access denied: missing permission",
					"user_id", userID,
					"company_id", companyID,
					"permission_code", code)
				writeAppError(w, appErrors.NewForbiddenError("missing permission "+string(code), appErrors.ErrCodeUnauthorizedAccess))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAppError(w http.ResponseWriter, appErr *appErrors.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
