package workflow

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/hr-approvals/internal/approval"
	"github.com/frahmantamala/hr-approvals/internal/transport"
)

type ServiceAPI[P Payload] interface {
	Create(ctx context.Context, companyID, subjectID string, payload P) (*Request, error)
	Decide(ctx context.Context, in DecideInput) (*Request, error)
	Cancel(ctx context.Context, companyID, requestID, actorID string) (*Request, error)
	GetInbox(ctx context.Context, companyID, approverID string, step approval.Step, page Page) ([]*Request, error)
	Get(ctx context.Context, companyID, actorID, requestID string) (*Request, error)
	ListMine(ctx context.Context, companyID, userID string, page Page) ([]*Request, error)
	ListBySubject(ctx context.Context, companyID, actorID, subjectID string, page Page) ([]*Request, error)
	Stats(ctx context.Context, companyID, actorID string) (*Stats, error)
	History(ctx context.Context, companyID, actorID, requestID string) ([]*LogEntry, error)
}

// Handler exposes one request kind over HTTP.
type Handler[P Payload] struct {
	*transport.BaseHandler
	Service ServiceAPI[P]
}

func NewHandler[P Payload](baseHandler *transport.BaseHandler, service ServiceAPI[P]) *Handler[P] {
	return &Handler[P]{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// DecisionBody is the payload of POST /{kind}/{id}/decisions.
type DecisionBody struct {
	Step                     string `json:"step"`
	Decision                 string `json:"decision"`
	Notes                    string `json:"notes,omitempty"`
	ApprovedAmount           *int64 `json:"approved_amount,omitempty"`
	ApprovedMonthlyDeduction *int64 `json:"approved_monthly_deduction,omitempty"`
}

type ListResponse struct {
	Items  []*Request `json:"items"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

type HistoryResponse struct {
	RequestID string      `json:"request_id"`
	Entries   []*LogEntry `json:"entries"`
}

// Routes mounts the kind's endpoints on r.
func (h *Handler[P]) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/mine", h.ListMine)
	r.Get("/stats", h.Stats)
	r.Get("/inbox", h.Inbox)
	r.Get("/employees/{employeeId}", h.ListByEmployee)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/history", h.History)
	r.Post("/{id}/decisions", h.Decide)
	r.Post("/{id}/cancel", h.Cancel)
}

func (h *Handler[P]) Create(w http.ResponseWriter, r *http.Request) {
	userID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}

	var payload P
	if !h.DecodeJSON(w, r, &payload) {
		return
	}

	req, err := h.Service.Create(r.Context(), companyID, userID, payload)
	if err != nil {
		h.Logger.Error("Create: service error", "error", err, "user_id", userID, "company_id", companyID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Create: request created",
		"request_id", req.ID,
		"user_id", userID,
		"current_step", req.CurrentStep)

	h.WriteJSON(w, http.StatusCreated, req)
}

func (h *Handler[P]) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}

	limit, offset := transport.Pagination(r)
	items, err := h.Service.ListMine(r.Context(), companyID, userID, Page{Limit: limit, Offset: offset})
	if err != nil {
		h.Logger.Error("ListMine: service error", "error", err, "user_id", userID)
		h.HandleServiceError(w, err)
		return
	}
	if items == nil {
		items = []*Request{}
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Items: items, Limit: limit, Offset: offset})
}

// ListByEmployee lists another employee's requests of this kind.
func (h *Handler[P]) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	userID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}

	employeeID := chi.URLParam(r, "employeeId")
	limit, offset := transport.Pagination(r)
	items, err := h.Service.ListBySubject(r.Context(), companyID, userID, employeeID, Page{Limit: limit, Offset: offset})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if items == nil {
		items = []*Request{}
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Items: items, Limit: limit, Offset: offset})
}

func (h *Handler[P]) Stats(w http.ResponseWriter, r *http.Request) {
	userID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}

	stats, err := h.Service.Stats(r.Context(), companyID, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}

// Inbox lists requests waiting at ?step= (MANAGER when omitted).
func (h *Handler[P]) Inbox(w http.ResponseWriter, r *http.Request) {
	userID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}

	step := approval.StepManager
	if raw := r.URL.Query().Get("step"); raw != "" {
		parsed, err := approval.ParseStep(raw)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		step = parsed
	}

	limit, offset := transport.Pagination(r)
	items, err := h.Service.GetInbox(r.Context(), companyID, userID, step, Page{Limit: limit, Offset: offset})
	if err != nil {
		h.Logger.Error("Inbox: service error", "error", err, "approver_id", userID, "step", step)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Items: items, Limit: limit, Offset: offset})
}

func (h *Handler[P]) Get(w http.ResponseWriter, r *http.Request) {
	userID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}

	req, err := h.Service.Get(r.Context(), companyID, userID, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler[P]) History(w http.ResponseWriter, r *http.Request) {
	userID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}

	requestID := chi.URLParam(r, "id")
	entries, err := h.Service.History(r.Context(), companyID, userID, requestID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []*LogEntry{}
	}
	h.WriteJSON(w, http.StatusOK, HistoryResponse{RequestID: requestID, Entries: entries})
}

func (h *Handler[P]) Decide(w http.ResponseWriter, r *http.Request) {
	userID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}

	var body DecisionBody
	if !h.DecodeJSON(w, r, &body) {
		return
	}

	step, err := approval.ParseStep(body.Step)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	decision, err := approval.ParseVerdict(body.Decision)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	req, err := h.Service.Decide(r.Context(), DecideInput{
		CompanyID:                companyID,
		RequestID:                chi.URLParam(r, "id"),
		ActorID:                  userID,
		Step:                     step,
		Decision:                 decision,
		Notes:                    body.Notes,
		ApprovedAmount:           body.ApprovedAmount,
		ApprovedMonthlyDeduction: body.ApprovedMonthlyDeduction,
	})
	if err != nil {
		h.Logger.Warn("Decide: service error", "error", err, "approver_id", userID, "step", step)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler[P]) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}

	req, err := h.Service.Cancel(r.Context(), companyID, chi.URLParam(r, "id"), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, req)
}
