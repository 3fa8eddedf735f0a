package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Mousaahmad63636/POS-sub001/internal/apierror"
	"github.com/Mousaahmad63636/POS-sub001/internal/dto"
	"github.com/Mousaahmad63636/POS-sub001/internal/infra"
	"github.com/Mousaahmad63636/POS-sub001/internal/ledger"
	"github.com/Mousaahmad63636/POS-sub001/internal/middleware"
	"github.com/Mousaahmad63636/POS-sub001/internal/service"
)

type DrawerHandler struct{ svc service.DrawerService }

func NewDrawerHandler(svc service.DrawerService) *DrawerHandler { return &DrawerHandler{svc: svc} }

// drawerError maps domain errors onto HTTP status codes. Busy registers get
// 409 so clients know to retry; persistence exhaustion is a plain 500.
func drawerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, infra.ErrBusy):
		c.JSON(http.StatusConflict, apierror.New("Register is busy, try again"))
	case errors.Is(err, ledger.ErrSessionAlreadyOpen):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, ledger.ErrNoActiveSession):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrSessionClosed):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, ledger.ErrMalformedLedger):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case errors.Is(err, infra.ErrPersistenceFailure):
		c.JSON(http.StatusInternalServerError, apierror.New("Could not persist the operation"))
	default:
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
	}
}

// Open godoc
// @Summary Opens a new drawer session on a register
// @Tags drawer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenDrawerRequest true "Opening data"
// @Success 201 {object} dto.DrawerSessionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/drawer/open [post]
func (h *DrawerHandler) Open(c *gin.Context) {
	var req dto.OpenDrawerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	resp, err := h.svc.OpenDrawer(c.Request.Context(), claims.UserID, claims.FullName, req)
	if err != nil {
		drawerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AddCash godoc
// @Summary Adds cash to the open drawer session
// @Tags drawer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CashMovementRequest true "Cash in"
// @Success 200 {object} dto.DrawerSessionResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/drawer/cash-in [post]
func (h *DrawerHandler) AddCash(c *gin.Context) {
	var req dto.CashMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddCash(c.Request.Context(), req)
	if err != nil {
		drawerError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveCash godoc
// @Summary Removes cash from the open drawer session
// @Tags drawer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CashMovementRequest true "Cash out"
// @Success 200 {object} dto.DrawerSessionResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/drawer/cash-out [post]
func (h *DrawerHandler) RemoveCash(c *gin.Context) {
	var req dto.CashMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RemoveCash(c.Request.Context(), req)
	if err != nil {
		drawerError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordTransaction godoc
// @Summary Appends a typed ledger entry to the open drawer session
// @Tags drawer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RecordTransactionRequest true "Ledger entry"
// @Success 200 {object} dto.DrawerSessionResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/drawer/transaction [post]
func (h *DrawerHandler) RecordTransaction(c *gin.Context) {
	var req dto.RecordTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordTransaction(c.Request.Context(), req)
	if err != nil {
		drawerError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Close godoc
// @Summary Closes the open drawer session with a physical cash count
// @Tags drawer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseDrawerRequest true "Count declaration"
// @Success 200 {object} dto.CloseDrawerResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/drawer/close [post]
func (h *DrawerHandler) Close(c *gin.Context) {
	var req dto.CloseDrawerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CloseDrawer(c.Request.Context(), req)
	if err != nil {
		drawerError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetActive returns the open session of a register, 404 when none.
func (h *DrawerHandler) GetActive(c *gin.Context) {
	registerID, err := strconv.Atoi(c.Param("register"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid register ID"))
		return
	}
	resp, err := h.svc.GetActiveSession(c.Request.Context(), registerID)
	if err != nil {
		drawerError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetReport godoc
// @Summary Full reconciliation report for a session
// @Tags drawer
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.SessionReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/drawer/{id}/report [get]
func (h *DrawerHandler) GetReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid session ID"))
		return
	}
	resp, err := h.svc.GetSessionReport(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSummary aggregates categorized totals over an optional date range.
// Query params from / to are RFC 3339; both are optional.
func (h *DrawerHandler) GetSummary(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetFinancialSummary(c.Request.Context(), from, to)
	if err != nil {
		drawerError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetDrift compares the persisted running balance against a full replay.
func (h *DrawerHandler) GetDrift(c *gin.Context) {
	registerID, err := strconv.Atoi(c.Param("register"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid register ID"))
		return
	}
	resp, err := h.svc.GetDriftReport(c.Request.Context(), registerID)
	if err != nil {
		drawerError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reconcile overwrites the persisted balance with the replayed value.
// Supervisor-gated in the router.
func (h *DrawerHandler) Reconcile(c *gin.Context) {
	registerID, err := strconv.Atoi(c.Param("register"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid register ID"))
		return
	}
	resp, err := h.svc.Reconcile(c.Request.Context(), registerID)
	if err != nil {
		drawerError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History lists closed sessions over an optional date range.
func (h *DrawerHandler) History(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListHistoricalSessions(c.Request.Context(), from, to)
	if err != nil {
		drawerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// parseDateRange reads optional from / to query params (RFC 3339).
// Zero values mean an open-ended range.
func parseDateRange(c *gin.Context) (from, to time.Time, ok bool) {
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Invalid 'from' date, expected RFC 3339"))
			return from, to, false
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Invalid 'to' date, expected RFC 3339"))
			return from, to, false
		}
		to = t
	}
	return from, to, true
}
