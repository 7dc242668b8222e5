package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"socialpay/internal/auth"
	"socialpay/internal/checkout"
	"socialpay/internal/clock"
	"socialpay/internal/middleware"
	"socialpay/internal/models"
	"socialpay/internal/orchestrator"
	"socialpay/internal/otp"
	"socialpay/internal/payment"
	"socialpay/internal/pkg/utils"
	"socialpay/internal/presenter"
)

// SessionDeps is what the session endpoints need to build and drive
// checkout sessions.
type SessionDeps struct {
	Registry   *orchestrator.Registry
	Catalog    *payment.Catalog
	BackendFor func(creds auth.Credentials) payment.Backend
	PhoneRule  checkout.PhoneRule
	Config     orchestrator.Config
	Clock      clock.Clock
	Recorder   orchestrator.Recorder
	Notifier   orchestrator.Notifier
	ReceiptURL string
	Logger     *zap.Logger
}

// SessionHandler exposes checkout sessions over HTTP.
type SessionHandler struct {
	deps SessionDeps
}

func NewSessionHandler(deps SessionDeps) *SessionHandler {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	return &SessionHandler{deps: deps}
}

type createSessionRequest struct {
	Variant    string `json:"variant"`
	TargetID   string `json:"target_id"`
	Amount     string `json:"amount"`
	SuccessURL string `json:"success_url"`
	FailureURL string `json:"failure_url"`
}

type submitRequest struct {
	Amount    string `json:"amount"`
	Phone     string `json:"phone_number"`
	Medium    string `json:"medium"`
	TipAmount string `json:"tip_amount"`
	TipPhone  string `json:"tip_phone"`
	TipMedium string `json:"tip_medium"`
}

type digitRequest struct {
	Index int    `json:"index"`
	Value string `json:"value"`
}

type pasteRequest struct {
	Code string `json:"code"`
}

type sessionPayload struct {
	Session orchestrator.Snapshot `json:"session"`
	View    presenter.View        `json:"view"`
}

// Create opens a session for a merchant, checkout link or QR link.
// POST /api/sessions
func (h *SessionHandler) Create(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	variant := models.FlowVariant(strings.ToLower(strings.TrimSpace(req.Variant)))
	if !variant.Valid() {
		return errorResponse(c, http.StatusBadRequest, "Unknown checkout variant: "+req.Variant, nil)
	}
	target := checkout.Target{
		Variant:    variant,
		ID:         req.TargetID,
		SuccessURL: strings.TrimSpace(req.SuccessURL),
		FailureURL: strings.TrimSpace(req.FailureURL),
	}
	if raw := strings.TrimSpace(req.Amount); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil || !amount.IsPositive() {
			return errorResponse(c, http.StatusBadRequest, "Invalid amount", nil)
		}
		target.StaticAmount = decimal.NewNullDecimal(amount)
	}

	creds := middleware.Credentials(c)
	backend := h.deps.BackendFor(creds)
	flow, err := checkout.NewFlow(target, backend, h.deps.PhoneRule)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err.Error(), nil)
	}

	mediums, err := h.deps.Catalog.Mediums(c.Request().Context())
	if err != nil {
		// The session still works; medium checks fall to the backend.
		h.deps.Logger.Warn("Catalog unavailable for new session", zap.Error(err))
	}

	id := utils.GenerateUUID()
	logger := h.deps.Logger
	session := orchestrator.NewSession(id, orchestrator.Deps{
		Backend: backend,
		Flow:    flow,
		Clock:   h.deps.Clock,
		Logger:  logger,
		Navigator: orchestrator.NavigatorFunc(func(url string) {
			logger.Info("Session navigating", zap.String("session_id", id), zap.String("url", url))
		}),
		Recorder: h.deps.Recorder,
		Notifier: h.deps.Notifier,
		Mediums:  mediums,
	}, h.deps.Config)
	h.deps.Registry.Add(session)

	h.deps.Logger.Info("Checkout session created",
		zap.String("session_id", id),
		zap.String("variant", string(variant)),
		zap.String("target_id", target.ID),
		zap.Bool("anonymous", creds.Anonymous()),
	)
	return c.JSON(http.StatusCreated, models.APIResponse{Status: true, Msg: "Session created", Obj: h.payload(session.Snapshot())})
}

// Get returns the session state.
// GET /api/sessions/:id
func (h *SessionHandler) Get(c echo.Context) error {
	session, err := h.deps.Registry.Get(c.Param("id"))
	if err != nil {
		return h.fail(c, err, nil)
	}
	return successResponse(c, "Successful", h.payload(session.Snapshot()))
}

// Submit initiates the payment.
// POST /api/sessions/:id/submit
func (h *SessionHandler) Submit(c echo.Context) error {
	session, err := h.deps.Registry.Get(c.Param("id"))
	if err != nil {
		return h.fail(c, err, nil)
	}

	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	in := session.NewIntent()
	in.SetAmount(req.Amount)
	in.SetPhone(req.Phone)
	in.SetMedium(req.Medium)
	in.SetTipAmount(req.TipAmount)
	in.SetTipPhone(req.TipPhone)
	in.SetTipMedium(req.TipMedium)

	if err := session.Submit(c.Request().Context(), in); err != nil {
		return h.fail(c, err, session)
	}
	return successResponse(c, "Submitted", h.payload(session.Snapshot()))
}

// Digit fills one verification code slot.
// POST /api/sessions/:id/otp/digit
func (h *SessionHandler) Digit(c echo.Context) error {
	session, err := h.deps.Registry.Get(c.Param("id"))
	if err != nil {
		return h.fail(c, err, nil)
	}
	var req digitRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body", nil)
	}
	if err := session.EnterDigit(c.Request().Context(), req.Index, strings.TrimSpace(req.Value)); err != nil {
		return h.fail(c, err, session)
	}
	return successResponse(c, "Successful", h.payload(session.Snapshot()))
}

// Paste fills every verification code slot at once.
// POST /api/sessions/:id/otp/paste
func (h *SessionHandler) Paste(c echo.Context) error {
	session, err := h.deps.Registry.Get(c.Param("id"))
	if err != nil {
		return h.fail(c, err, nil)
	}
	var req pasteRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body", nil)
	}
	if err := session.PasteCode(c.Request().Context(), strings.TrimSpace(req.Code)); err != nil {
		return h.fail(c, err, session)
	}
	return successResponse(c, "Successful", h.payload(session.Snapshot()))
}

// Resend clears the code slots.
// POST /api/sessions/:id/otp/resend
func (h *SessionHandler) Resend(c echo.Context) error {
	session, err := h.deps.Registry.Get(c.Param("id"))
	if err != nil {
		return h.fail(c, err, nil)
	}
	if err := session.ResendCode(c.Request().Context()); err != nil {
		return h.fail(c, err, session)
	}
	return successResponse(c, "Successful", h.payload(session.Snapshot()))
}

// CloseExternal hides the embedded checkout surface.
// POST /api/sessions/:id/external/close
func (h *SessionHandler) CloseExternal(c echo.Context) error {
	session, err := h.deps.Registry.Get(c.Param("id"))
	if err != nil {
		return h.fail(c, err, nil)
	}
	session.HideExternalCheckout()
	return successResponse(c, "Successful", h.payload(session.Snapshot()))
}

// Dismiss closes the session, answering with the redirect to follow, if any.
// POST /api/sessions/:id/dismiss
func (h *SessionHandler) Dismiss(c echo.Context) error {
	session, err := h.deps.Registry.Get(c.Param("id"))
	if err != nil {
		return h.fail(c, err, nil)
	}
	snap := session.Dismiss()
	h.deps.Registry.Remove(snap.SessionID)
	return successResponse(c, "Dismissed", h.payload(snap))
}

// Receipt fetches the receipt of the session's transaction.
// GET /api/sessions/:id/receipt
func (h *SessionHandler) Receipt(c echo.Context) error {
	session, err := h.deps.Registry.Get(c.Param("id"))
	if err != nil {
		return h.fail(c, err, nil)
	}
	snap := session.Snapshot()
	if snap.TransactionID == "" {
		return errorResponse(c, http.StatusConflict, "No transaction for this session", nil)
	}

	receipt, err := h.deps.BackendFor(middleware.Credentials(c)).GetReceipt(c.Request().Context(), snap.TransactionID)
	if err != nil {
		h.deps.Logger.Error("Failed to fetch receipt", zap.String("transaction_id", snap.TransactionID), zap.Error(err))
		if payment.IsTransport(err) {
			return errorResponse(c, http.StatusBadGateway, "Payment backend unavailable", nil)
		}
		return errorResponse(c, http.StatusInternalServerError, "Failed to retrieve receipt", nil)
	}
	return successResponse(c, "Successful", receipt)
}

func (h *SessionHandler) payload(snap orchestrator.Snapshot) sessionPayload {
	return sessionPayload{Session: snap, View: presenter.Render(snap, h.deps.ReceiptURL)}
}

func (h *SessionHandler) fail(c echo.Context, err error, session *orchestrator.Session) error {
	var obj interface{}
	if session != nil {
		obj = h.payload(session.Snapshot())
	}

	var verr *otp.VerificationError
	switch {
	case errors.Is(err, orchestrator.ErrSessionNotFound):
		return errorResponse(c, http.StatusNotFound, "Session not found", nil)
	case errors.Is(err, orchestrator.ErrSessionClosed):
		return errorResponse(c, http.StatusGone, "Session closed", obj)
	case errors.Is(err, orchestrator.ErrAlreadySubmitted),
		errors.Is(err, orchestrator.ErrNoVerification),
		errors.Is(err, otp.ErrVerificationInFlight),
		errors.Is(err, otp.ErrAlreadyVerified):
		return errorResponse(c, http.StatusConflict, err.Error(), obj)
	case errors.Is(err, otp.ErrInvalidDigit), errors.Is(err, otp.ErrIncompleteCode):
		return errorResponse(c, http.StatusBadRequest, err.Error(), obj)
	case errors.As(err, &verr):
		return errorResponse(c, http.StatusUnprocessableEntity, verr.Message, obj)
	}
	if ve, ok := checkout.AsValidation(err); ok {
		return errorResponse(c, http.StatusUnprocessableEntity, ve.Error(), obj)
	}

	h.deps.Logger.Error("Session request failed", zap.Error(err))
	return errorResponse(c, http.StatusInternalServerError, "Something went wrong", obj)
}
