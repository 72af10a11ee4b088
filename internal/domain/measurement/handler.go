package measurement

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fittracker/fittracker/internal/platform/apperr"
	"github.com/fittracker/fittracker/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/students/:id/measurements", h.ListMeasurements)
	api.GET("/students/:id/measurements/latest", h.LatestMeasurement)
	api.POST("/students/:id/measurements", h.CreateMeasurement)
	api.GET("/measurements/:id", h.GetMeasurement)
	api.PUT("/measurements/:id", h.UpdateMeasurement)
	api.PATCH("/measurements/:id", h.UpdateMeasurement)
	api.DELETE("/measurements/:id", h.DeleteMeasurement)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) ListMeasurements(c echo.Context) error {
	studentID, err := parseID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListByStudent(c.Request().Context(), auth.FromEcho(c), studentID)
	if err != nil {
		return apperr.HTTP(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) LatestMeasurement(c echo.Context) error {
	studentID, err := parseID(c)
	if err != nil {
		return err
	}
	m, err := h.svc.Latest(c.Request().Context(), auth.FromEcho(c), studentID)
	if err != nil {
		return apperr.HTTP(c, err)
	}
	if m == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no measurements")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) CreateMeasurement(c echo.Context) error {
	studentID, err := parseID(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&in); err != nil {
		return err
	}
	m, err := h.svc.Create(c.Request().Context(), auth.FromEcho(c), studentID, in)
	if err != nil {
		return apperr.HTTP(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetMeasurement(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	m, err := h.svc.Get(c.Request().Context(), auth.FromEcho(c), id)
	if err != nil {
		return apperr.HTTP(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) UpdateMeasurement(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.Update(c.Request().Context(), auth.FromEcho(c), id, &patch)
	if err != nil {
		return apperr.HTTP(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMeasurement(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), auth.FromEcho(c), id); err != nil {
		return apperr.HTTP(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
