package therapyplan

import (
	"net/http"

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
	// Reads are open to any authenticated actor; the service enforces
	// per-plan ownership.
	api.GET("/plans/:id", h.GetPlan)
	api.GET("/plans/:id/versions", h.ListVersions)
	api.GET("/patients/:id/plans", h.ListPlansByPatient)

	staff := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RoleClinician))
	staff.POST("/plans", h.CreatePlan)
	staff.POST("/plans/:id/exercises", h.AddExercise)
	staff.PUT("/plans/:id/exercises/:exercise_id", h.UpdateExercise)
	staff.DELETE("/plans/:id/exercises/:exercise_id", h.ArchiveExercise)
	staff.POST("/plans/:id/reorder", h.Reorder)
	staff.GET("/exercises", h.ListCatalog)
}

func (h *Handler) CreatePlan(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.Forbidden("authentication required")
	}
	var body struct {
		PatientID      uuid.UUID `json:"patient_id"`
		PractitionerID uuid.UUID `json:"practitioner_id"`
	}
	if err := c.Bind(&body); err != nil {
		return apperror.Validation("invalid request body")
	}
	plan, err := h.svc.CreatePlan(c.Request().Context(), actor, body.PatientID, body.PractitionerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, plan)
}

func (h *Handler) GetPlan(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.Forbidden("authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	view, err := h.svc.GetPlan(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) ListVersions(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.Forbidden("authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	versions, err := h.svc.ListVersions(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, versions)
}

func (h *Handler) ListPlansByPatient(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.Forbidden("authentication required")
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	plans, err := h.svc.ListPlansByPatient(c.Request().Context(), actor, patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plans)
}

func (h *Handler) AddExercise(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.Forbidden("authentication required")
	}
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	var req AddExerciseRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	pe, err := h.svc.AddExercise(c.Request().Context(), actor, planID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, pe)
}

func (h *Handler) UpdateExercise(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.Forbidden("authentication required")
	}
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	exerciseID, err := uuid.Parse(c.Param("exercise_id"))
	if err != nil {
		return apperror.Validation("invalid exercise id")
	}
	var params UpdateParams
	if err := c.Bind(&params); err != nil {
		return apperror.Validation("invalid request body")
	}
	pe, err := h.svc.UpdateExercise(c.Request().Context(), actor, planID, exerciseID, params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pe)
}

func (h *Handler) ArchiveExercise(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.Forbidden("authentication required")
	}
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	exerciseID, err := uuid.Parse(c.Param("exercise_id"))
	if err != nil {
		return apperror.Validation("invalid exercise id")
	}
	if err := h.svc.ArchiveExercise(c.Request().Context(), actor, planID, exerciseID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Reorder(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.Forbidden("authentication required")
	}
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	var body struct {
		Items []ReorderItem `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := h.svc.Reorder(c.Request().Context(), actor, planID, body.Items); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListCatalog(c echo.Context) error {
	pg := pagination.FromContext(c)
	exercises, total, err := h.svc.ListCatalog(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(exercises, total, pg.Limit, pg.Offset))
}
