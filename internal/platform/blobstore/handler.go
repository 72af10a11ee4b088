package blobstore

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fittracker/fittracker/internal/platform/apperr"
	"github.com/fittracker/fittracker/internal/platform/auth"
	"github.com/fittracker/fittracker/pkg/pagination"
)

// BlobHandler serves the caller's archived reports.
type BlobHandler struct {
	store BlobStore
}

func NewBlobHandler(store BlobStore) *BlobHandler {
	return &BlobHandler{store: store}
}

func (h *BlobHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/reports", h.handleList)
	g.GET("/reports/:id", h.handleDownload)
	g.DELETE("/reports/:id", h.handleDelete)
}

func owner(c echo.Context) (string, error) {
	sess := auth.FromEcho(c)
	if err := sess.Require(); err != nil {
		return "", err
	}
	return sess.UserID.String(), nil
}

func storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, ErrMissingFileName), errors.Is(err, ErrMissingOwner):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return apperr.HTTP(c, err)
	}
}

func (h *BlobHandler) handleList(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return apperr.HTTP(c, err)
	}
	p := pagination.FromContext(c)
	items, total, err := h.store.List(c.Request().Context(), ownerID, p.Limit, p.Offset)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p))
}

func (h *BlobHandler) handleDownload(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return apperr.HTTP(c, err)
	}
	rc, meta, err := h.store.Download(c.Request().Context(), ownerID, c.Param("id"))
	if err != nil {
		return storeError(c, err)
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, meta.FileName))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}

func (h *BlobHandler) handleDelete(c echo.Context) error {
	ownerID, err := owner(c)
	if err != nil {
		return apperr.HTTP(c, err)
	}
	if err := h.store.Delete(c.Request().Context(), ownerID, c.Param("id")); err != nil {
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
