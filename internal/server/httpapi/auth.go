package httpapi

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dmitrijs2005/feedbackhub/internal/server/services"
)

// contextAdminKey holds the authenticated admin username.
const contextAdminKey = "admin"

func basicAuth(admins *services.AdminService) echo.MiddlewareFunc {
	return middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Realm: "feedbackhub admin",
		Validator: func(username, password string, c echo.Context) (bool, error) {
			ok, err := admins.VerifyAdmin(c.Request().Context(), username, password)
			if err != nil {
				return false, err
			}
			if ok {
				c.Set(contextAdminKey, username)
			}
			return ok, nil
		},
	})
}

func currentAdmin(c echo.Context) string {
	admin, _ := c.Get(contextAdminKey).(string)
	return admin
}
