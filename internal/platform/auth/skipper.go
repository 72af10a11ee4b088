package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths bypass the JWT middleware. c.Path() is the route pattern, so
// entries match registered routes exactly.
var publicPaths = map[string]bool{
	"/health":       true,
	"/health/db":    true,
	"/metrics":      true,
	"/auth/sign-in": true,
	"/auth/sign-up": true,
}

func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

func IsPublicPath(path string) bool {
	return publicPaths[path]
}
