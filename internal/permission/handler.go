package permission

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi"

	errors "github.com/frahmantamala/hr-approvals/internal"
	"github.com/frahmantamala/hr-approvals/internal/transport"
)

type ServiceAPI interface {
	GetAccessibleEmployeeIDs(ctx context.Context, approverID, companyID string, code Code) (EmployeeSet, error)
	CanAccessEmployee(ctx context.Context, approverID, companyID string, code Code, targetID string) (Access, error)
	HasPermission(ctx context.Context, userID, companyID string, code Code) (bool, error)
	ListUserGrants(ctx context.Context, companyID, userID string) ([]*Grant, error)
	ListPermissions(ctx context.Context) ([]*Permission, error)
	AddGrant(ctx context.Context, actorID string, g *Grant) (*Grant, error)
	RemoveGrant(ctx context.Context, actorID, companyID, grantID string) error
	UpdateGrantEmployees(ctx context.Context, actorID, companyID, grantID string, employeeIDs []string) (*Grant, error)
	ReplaceUserGrants(ctx context.Context, actorID, companyID, userID string, grants []*Grant) ([]*Grant, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

type GrantBody struct {
	UserID       string   `json:"user_id"`
	Code         string   `json:"permission_code"`
	Scope        string   `json:"scope"`
	BranchID     *string  `json:"branch_id,omitempty"`
	DepartmentID *string  `json:"department_id,omitempty"`
	EmployeeIDs  []string `json:"employee_ids,omitempty"`
}

type EmployeesBody struct {
	EmployeeIDs []string `json:"employee_ids"`
}

type ReplaceGrantsBody struct {
	Grants []GrantBody `json:"grants"`
}

type AccessibleEmployeesResponse struct {
	Code        Code     `json:"permission_code"`
	EmployeeIDs []string `json:"employee_ids"`
}

type GrantsResponse struct {
	UserID string   `json:"user_id"`
	Grants []*Grant `json:"grants"`
}

// Routes mounts the permission endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListPermissions)
	r.Get("/accessible-employees", h.AccessibleEmployees)
	r.Get("/can-access", h.CanAccess)
	r.Get("/users/{userId}/grants", h.ListUserGrants)
	r.Put("/users/{userId}/grants", h.ReplaceUserGrants)
	r.Post("/grants", h.AddGrant)
	r.Delete("/grants/{id}", h.RemoveGrant)
	r.Put("/grants/{id}/employees", h.UpdateGrantEmployees)
}

func parseCode(raw string) (Code, error) {
	code := Code(strings.ToUpper(strings.TrimSpace(raw)))
	if code == "" {
		return "", errors.NewValidationFieldError("code", "permission code is required", errors.ErrCodeValidationFailed)
	}
	return code, nil
}

func (b GrantBody) toGrant(companyID string) (*Grant, error) {
	code, err := parseCode(b.Code)
	if err != nil {
		return nil, err
	}
	scope, err := ParseScope(b.Scope)
	if err != nil {
		return nil, err
	}
	return &Grant{
		UserID:       b.UserID,
		CompanyID:    companyID,
		Code:         code,
		Scope:        scope,
		BranchID:     b.BranchID,
		DepartmentID: b.DepartmentID,
		EmployeeIDs:  b.EmployeeIDs,
	}, nil
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.Identity(w, r); !ok {
		return
	}
	perms, err := h.Service.ListPermissions(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, perms)
}

// AccessibleEmployees lists the employees the caller may act on with ?code=.
func (h *Handler) AccessibleEmployees(w http.ResponseWriter, r *http.Request) {
	userID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	code, err := parseCode(r.URL.Query().Get("code"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	set, err := h.Service.GetAccessibleEmployeeIDs(r.Context(), userID, companyID, code)
	if err != nil {
		h.Logger.Error("AccessibleEmployees: service error", "error", err, "approver_id", userID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AccessibleEmployeesResponse{Code: code, EmployeeIDs: set.Slice()})
}

func (h *Handler) CanAccess(w http.ResponseWriter, r *http.Request) {
	userID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	code, err := parseCode(r.URL.Query().Get("code"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	target := r.URL.Query().Get("employeeId")
	if target == "" {
		h.HandleServiceError(w, errors.NewValidationFieldError("employeeId", "employee id is required", errors.ErrCodeValidationFailed))
		return
	}

	access, err := h.Service.CanAccessEmployee(r.Context(), userID, companyID, code, target)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, access)
}

// ListUserGrants shows a user's grants to the user and to permission managers.
func (h *Handler) ListUserGrants(w http.ResponseWriter, r *http.Request) {
	actorID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userId")

	if userID != actorID {
		allowed, err := h.Service.HasPermission(r.Context(), actorID, companyID, PermissionsManage)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		if !allowed {
			h.HandleServiceError(w, ErrUnauthorizedAccess)
			return
		}
	}

	grants, err := h.Service.ListUserGrants(r.Context(), companyID, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if grants == nil {
		grants = []*Grant{}
	}
	h.WriteJSON(w, http.StatusOK, GrantsResponse{UserID: userID, Grants: grants})
}

func (h *Handler) AddGrant(w http.ResponseWriter, r *http.Request) {
	actorID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}

	var body GrantBody
	if !h.DecodeJSON(w, r, &body) {
		return
	}
	g, err := body.toGrant(companyID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	created, err := h.Service.AddGrant(r.Context(), actorID, g)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) RemoveGrant(w http.ResponseWriter, r *http.Request) {
	actorID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}

	if err := h.Service.RemoveGrant(r.Context(), actorID, companyID, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdateGrantEmployees(w http.ResponseWriter, r *http.Request) {
	actorID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}

	var body EmployeesBody
	if !h.DecodeJSON(w, r, &body) {
		return
	}

	updated, err := h.Service.UpdateGrantEmployees(r.Context(), actorID, companyID, chi.URLParam(r, "id"), body.EmployeeIDs)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) ReplaceUserGrants(w http.ResponseWriter, r *http.Request) {
	actorID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userId")

	var body ReplaceGrantsBody
	if !h.DecodeJSON(w, r, &body) {
		return
	}

	grants := make([]*Grant, 0, len(body.Grants))
	for _, gb := range body.Grants {
		gb.UserID = userID
		g, err := gb.toGrant(companyID)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		grants = append(grants, g)
	}

	stored, err := h.Service.ReplaceUserGrants(r.Context(), actorID, companyID, userID, grants)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, GrantsResponse{UserID: userID, Grants: stored})
}
