package appointment

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicops/clinic/internal/platform/apperror"
	"github.com/clinicops/clinic/internal/platform/auth"
	"github.com/clinicops/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireStaff())
	staff.POST("/appointments", h.Create)
	staff.GET("/appointments", h.ListByRange)
	staff.GET("/appointments/:id", h.Get)
	staff.PUT("/appointments/:id", h.Update)
	staff.POST("/appointments/:id/cancel", h.Cancel)
	staff.POST("/appointments/:id/status", h.Transition)
	staff.GET("/practitioners/:id/appointments", h.ListByPractitioner)

	// Patients may list their own appointments; handler checks ownership.
	api.GET("/patients/:id/appointments", h.ListByPatient)
}

func (h *Handler) Create(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.Forbidden("authentication required")
	}
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := h.svc.Create(c.Request().Context(), actor, &a); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Update(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.Forbidden("authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	a, err := h.svc.Update(c.Request().Context(), actor, id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.Forbidden("authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return apperror.Validation("invalid request body")
	}
	meta := Meta{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
	a, err := h.svc.Cancel(c.Request().Context(), actor, id, body.Reason, meta)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Transition(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.Forbidden("authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	var body struct {
		Status Status `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return apperror.Validation("invalid request body")
	}
	a, err := h.svc.Transition(c.Request().Context(), actor, id, body.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// ListByRange serves the calendar view: appointments starting in the
// half-open range [from, to), both RFC 3339 timestamps.
func (h *Handler) ListByRange(c echo.Context) error {
	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		return apperror.Validation("from must be an RFC 3339 timestamp")
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		return apperror.Validation("to must be an RFC 3339 timestamp")
	}
	pg := pagination.FromContext(c)
	appts, total, err := h.svc.ListByRange(c.Request().Context(), from, to, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByPractitioner(c echo.Context) error {
	practitionerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	pg := pagination.FromContext(c)
	appts, total, err := h.svc.ListByPractitioner(c.Request().Context(), practitionerID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.Forbidden("authentication required")
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	if !actor.IsStaff() && !actor.IsPatient(patientID) {
		return apperror.Forbidden("not allowed to view these appointments")
	}
	pg := pagination.FromContext(c)
	appts, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
}
