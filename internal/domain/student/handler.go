package student

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fittracker/fittracker/internal/domain/progress"
	"github.com/fittracker/fittracker/internal/platform/apperr"
	"github.com/fittracker/fittracker/internal/platform/auth"
)

type Handler struct {
	svc *Service
	loc *time.Location
	now func() time.Time
}

// NewHandler serves the student endpoints. loc sets the dashboard month
// boundary and the date used for ages.
func NewHandler(svc *Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{svc: svc, loc: loc, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.Dashboard)
	api.GET("/students", h.ListStudents)
	api.POST("/students", h.CreateStudent)
	api.GET("/students/:id", h.GetStudent)
	api.PUT("/students/:id", h.UpdateStudent)
	api.PATCH("/students/:id", h.UpdateStudent)
	api.DELETE("/students/:id", h.DeleteStudent)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// profile is the single-student view: the summary plus values derived from
// it.
type profile struct {
	*Summary
	Age int     `json:"age"`
	BMI *string `json:"bmi"`
}

func (h *Handler) Dashboard(c echo.Context) error {
	d, err := h.svc.Dashboard(c.Request().Context(), auth.FromEcho(c), h.now().In(h.loc))
	if err != nil {
		return apperr.HTTP(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListStudents(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context(), auth.FromEcho(c), c.QueryParam("q"))
	if err != nil {
		return apperr.HTTP(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateStudent(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&in); err != nil {
		return err
	}
	s, err := h.svc.Create(c.Request().Context(), auth.FromEcho(c), in)
	if err != nil {
		return apperr.HTTP(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) GetStudent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	sum, err := h.svc.GetSummary(c.Request().Context(), auth.FromEcho(c), id)
	if err != nil {
		return apperr.HTTP(c, err)
	}

	p := profile{Summary: sum, Age: progress.Age(sum.DateOfBirth.Time, h.now().In(h.loc))}
	if sum.Latest != nil {
		bmi := progress.FormatBMI(sum.Latest.Weight, sum.Latest.Height)
		p.BMI = &bmi
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateStudent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var patch Patch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&patch); err != nil {
		return err
	}
	s, err := h.svc.Update(c.Request().Context(), auth.FromEcho(c), id, &patch)
	if err != nil {
		return apperr.HTTP(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) DeleteStudent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), auth.FromEcho(c), id); err != nil {
		return apperr.HTTP(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
