package middleware

import (
	"net/http"
	"strings"

	"github.com/jmehdipour/sms-broker/internal/repository"
	echo "github.com/labstack/echo/v4"
)

const (
	HeaderAPIKey  = "X-API-Key"
	ctxCustomerID = "customer_id"
)

// CustomerIDFromCtx extracts authenticated customer_id set by APIKeyMiddleware.
func CustomerIDFromCtx(c echo.Context) (int64, bool) {
	v := c.Get(ctxCustomerID)
	id, ok := v.(int64)
	return id, ok
}

// APIKeyMiddleware authenticates requests using X-API-Key header.
// On success it stores customer_id in context; suspended accounts are rejected.
func APIKeyMiddleware(customers repository.CustomersRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get(HeaderAPIKey))
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing api key"})
			}
			cu, err := customers.GetByAPIKey(c.Request().Context(), key)
			if err != nil {
				c.Logger().Errorf("api key lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "auth error"})
			}
			if cu == nil || !cu.Active() {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
			}
			c.Set(ctxCustomerID, cu.ID)
			return next(c)
		}
	}
}
