package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jmehdipour/sms-broker/internal/http/middleware"
	"github.com/jmehdipour/sms-broker/internal/model"
	smsSvc "github.com/jmehdipour/sms-broker/internal/service/sms"
	"github.com/jmehdipour/sms-broker/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type sendReq struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

// sendSMSHandler performs exactly one gateway call per request.
// ?mode=legacy answers text/plain with the raw body or transport error.
func sendSMSHandler(svc SMSService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req sendReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.Phone = util.NormalizePhone(req.Phone)
		if req.Phone == "" || strings.TrimSpace(req.Text) == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "phone and text are required"})
		}

		custID, ok := middleware.CustomerIDFromCtx(c)
		if !ok || custID <= 0 {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		msg, err := svc.Send(c.Request().Context(), smsSvc.SourceHTTP, custID, req.Phone, req.Text)

		if c.QueryParam("mode") == "legacy" {
			return c.String(http.StatusOK, msg.Legacy())
		}

		if err != nil || msg.Status != model.StatusSent {
			return c.JSON(http.StatusBadGateway, msg)
		}
		return c.JSON(http.StatusOK, msg)
	}
}

func getSMSHandler(svc SMSService) echo.HandlerFunc {
	return func(c echo.Context) error {
		custID, ok := middleware.CustomerIDFromCtx(c)
		if !ok || custID <= 0 {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		msg, err := svc.Get(c.Request().Context(), custID, c.Param("id"))
		switch {
		case errors.Is(err, smsSvc.ErrNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
		case err != nil:
			log.Errorf("get message %s failed: %v", c.Param("id"), err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusOK, msg)
	}
}
