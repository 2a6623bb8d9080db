package approval

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi"

	appErrors "github.com/frahmantamala/hr-approvals/internal"
	"github.com/frahmantamala/hr-approvals/internal/transport"
)

type ConfigServiceAPI interface {
	EffectiveConfig(ctx context.Context, companyID string, requestType RequestType) (*ChainConfig, error)
	Configure(ctx context.Context, cfg *ChainConfig) error
}

type Handler struct {
	*transport.BaseHandler
	Service ConfigServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ConfigServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// ChainConfigBody is the payload of PUT /chain-configs/{requestType}.
type ChainConfigBody struct {
	BaseSteps              []Step `json:"base_steps"`
	FinanceAmountThreshold *int64 `json:"finance_amount_threshold,omitempty"`
	CEOAmountThreshold     *int64 `json:"ceo_amount_threshold,omitempty"`
	FinanceDaysThreshold   *int   `json:"finance_days_threshold,omitempty"`
	CEODaysThreshold       *int   `json:"ceo_days_threshold,omitempty"`
}

func (h *Handler) requestType(w http.ResponseWriter, r *http.Request) (RequestType, bool) {
	t, err := ParseRequestType(chi.URLParam(r, "requestType"))
	if err == nil {
		if _, known := DefaultBases[t]; !known {
			err = ErrUnknownRequestType.WithMessage("unknown request type " + string(t))
		}
	}
	if err != nil {
		h.HandleServiceError(w, err)
		return "", false
	}
	return t, true
}

func (h *Handler) GetChainConfig(w http.ResponseWriter, r *http.Request) {
	_, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	requestType, ok := h.requestType(w, r)
	if !ok {
		return
	}

	cfg, err := h.Service.EffectiveConfig(r.Context(), companyID, requestType)
	if err != nil {
		h.Logger.Error("GetChainConfig: service error", "error", err, "company_id", companyID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) PutChainConfig(w http.ResponseWriter, r *http.Request) {
	userID, companyID, ok := h.Identity(w, r)
	if !ok {
		return
	}
	requestType, ok := h.requestType(w, r)
	if !ok {
		return
	}

	var body ChainConfigBody
	if !h.DecodeJSON(w, r, &body) {
		return
	}

	cfg := &ChainConfig{
		CompanyID:              companyID,
		RequestType:            requestType,
		BaseSteps:              body.BaseSteps,
		FinanceAmountThreshold: body.FinanceAmountThreshold,
		CEOAmountThreshold:     body.CEOAmountThreshold,
		FinanceDaysThreshold:   body.FinanceDaysThreshold,
		CEODaysThreshold:       body.CEODaysThreshold,
		UpdatedBy:              userID,
	}
	if err := h.Service.Configure(r.Context(), cfg); err != nil {
		// A rejected write is the caller's fault, not a broken stored config.
		if errors.Is(err, ErrMalformedChain) {
			appErr, _ := appErrors.IsAppError(err)
			err = appErrors.NewValidationError(appErr.Message, appErrors.ErrCodeMalformedChain)
		}
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("PutChainConfig: chain config stored",
		"company_id", companyID,
		"request_type", requestType,
		"updated_by", userID)

	h.WriteJSON(w, http.StatusOK, cfg)
}
