package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/jmehdipour/sms-broker/internal/http/middleware"
	"github.com/jmehdipour/sms-broker/internal/model"
	"github.com/jmehdipour/sms-broker/internal/service/codes"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// CodesService is what the verification-code handlers need.
type CodesService interface {
	Send(ctx context.Context, customerID int64, phone string) (model.Message, error)
	Check(ctx context.Context, customerID int64, phone, code string) error
}

var _ CodesService = (*codes.Service)(nil)

type sendCodeReq struct {
	Phone string `json:"phone"`
}

type checkCodeReq struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// sendCodeHandler answers without the message text: it carries the code.
func sendCodeHandler(svc CodesService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req sendCodeReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		custID, ok := middleware.CustomerIDFromCtx(c)
		if !ok || custID <= 0 {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		msg, err := svc.Send(c.Request().Context(), custID, req.Phone)

		var cd *codes.CooldownError
		switch {
		case errors.As(err, &cd):
			c.Response().Header().Set("Retry-After", strconv.Itoa(cd.RetryAfter()))
			return c.JSON(http.StatusTooManyRequests, map[string]any{
				"error":       cd.Error(),
				"retry_after": cd.RetryAfter(),
			})
		case errors.Is(err, codes.ErrInvalidPhone):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, codes.ErrStore):
			log.Errorf("store code failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		case msg.ID == "" && err != nil:
			log.Errorf("send code failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}

		out := map[string]any{
			"id":          msg.ID,
			"message_id":  msg.BrokerMessageID,
			"status":      msg.Status,
			"status_code": msg.StatusCode,
		}
		if err != nil || msg.Status != model.StatusSent {
			return c.JSON(http.StatusBadGateway, out)
		}
		return c.JSON(http.StatusOK, out)
	}
}

func checkCodeHandler(svc CodesService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req checkCodeReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		custID, ok := middleware.CustomerIDFromCtx(c)
		if !ok || custID <= 0 {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		err := svc.Check(c.Request().Context(), custID, req.Phone, req.Code)
		switch {
		case err == nil:
			return c.JSON(http.StatusOK, map[string]bool{"valid": true})
		case errors.Is(err, codes.ErrInvalidPhone):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, codes.ErrInvalidCode), errors.Is(err, codes.ErrCodeExpired):
			return c.JSON(http.StatusUnauthorized, map[string]any{"valid": false, "error": err.Error()})
		default:
			log.Errorf("check code failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
	}
}
