package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fittracker/fittracker/internal/platform/apperr"
)

type Handler struct {
	accounts *Accounts
}

func NewHandler(accounts *Accounts) *Handler {
	return &Handler{accounts: accounts}
}

// RegisterRoutes mounts the account endpoints on g, which is expected to be
// the /auth group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/sign-up", h.SignUp)
	g.POST("/sign-in", h.SignIn)
	g.POST("/sign-out", h.SignOut)
	g.GET("/me", h.Me)
}

func (h *Handler) SignUp(c echo.Context) error {
	var in SignUpInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&in); err != nil {
		return err
	}
	u, err := h.accounts.SignUp(c.Request().Context(), in)
	if err != nil {
		return apperr.HTTP(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *Handler) SignIn(c echo.Context) error {
	var in signInRequest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&in); err != nil {
		return err
	}
	token, sess, err := h.accounts.SignIn(c.Request().Context(), in.Email, in.Password)
	if err != nil {
		return apperr.HTTP(c, err)
	}
	return c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: sess.ExpiresAt})
}

func (h *Handler) SignOut(c echo.Context) error {
	if err := h.accounts.SignOut(FromEcho(c)); err != nil {
		return apperr.HTTP(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Me(c echo.Context) error {
	u, err := h.accounts.Me(c.Request().Context(), FromEcho(c))
	if err != nil {
		return apperr.HTTP(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
