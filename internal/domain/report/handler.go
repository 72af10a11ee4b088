package report

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fittracker/fittracker/internal/domain/progress"
	"github.com/fittracker/fittracker/internal/platform/apperr"
	"github.com/fittracker/fittracker/internal/platform/auth"
)

// Response headers set on exports.
const (
	HeaderReportPages   = "X-Report-Pages"
	HeaderReportArchive = "X-Report-Archive-Id"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/students/:id/progress", h.GetProgress)
	api.GET("/students/:id/charts/:key", h.GetChart)
	api.GET("/students/:id/export/options", h.GetExportOptions)
	api.POST("/students/:id/export", h.Export)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) GetProgress(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Progress(c.Request().Context(), auth.FromEcho(c), id)
	if err != nil {
		return apperr.HTTP(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetChart(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	key, err := progress.ParseChartKey(c.Param("key"))
	if err != nil {
		return apperr.HTTP(c, err)
	}
	img, contentType, err := h.svc.Chart(c.Request().Context(), auth.FromEcho(c), id, key, c.QueryParam("format"))
	if err != nil {
		return apperr.HTTP(c, err)
	}
	return c.Blob(http.StatusOK, contentType, img)
}

func (h *Handler) GetExportOptions(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	opts, err := h.svc.Options(c.Request().Context(), auth.FromEcho(c), id)
	if err != nil {
		return apperr.HTTP(c, err)
	}
	return c.JSON(http.StatusOK, opts)
}

func (h *Handler) Export(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req ExportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	doc, err := h.svc.Export(c.Request().Context(), auth.FromEcho(c), id, req)
	if err != nil {
		return apperr.HTTP(c, err)
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, doc.FileName))
	header.Set(HeaderReportPages, strconv.Itoa(doc.Pages))
	if doc.ArchiveID != "" {
		header.Set(HeaderReportArchive, doc.ArchiveID)
	}
	return c.Blob(http.StatusOK, "application/pdf", doc.PDF)
}
