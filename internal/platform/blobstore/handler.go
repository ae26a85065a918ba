package blobstore

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicops/clinic/internal/platform/apperror"
	"github.com/clinicops/clinic/internal/platform/auth"
)

// Handler exposes upload and download of completion media. The returned
// metadata includes the opaque id callers pass to the completion API.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/media", h.Upload)
	api.GET("/media/:id", h.Download)
}

func (h *Handler) Upload(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return apperror.Forbidden("authentication required")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return apperror.Validation("a file part named \"file\" is required")
	}
	f, err := fh.Open()
	if err != nil {
		return apperror.Internal(err)
	}
	defer f.Close()

	meta, err := h.store.Put(c.Request().Context(), fh.Filename, fh.Header.Get("Content-Type"), actor.ID.String(), f)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidContentType), errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrMissingFileName):
			return apperror.Validation("%s", err.Error())
		default:
			return apperror.Internal(err)
		}
	}
	return c.JSON(http.StatusCreated, meta)
}

func (h *Handler) Download(c echo.Context) error {
	meta, rc, err := h.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return apperror.NotFound("media not found")
		}
		return apperror.Internal(err)
	}
	defer rc.Close()
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}
