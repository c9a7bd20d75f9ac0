package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmehdipour/sms-broker/internal/http/middleware"
	"github.com/jmehdipour/sms-broker/internal/model"
	"github.com/jmehdipour/sms-broker/internal/repository"
	"github.com/jmehdipour/sms-broker/internal/util"
	echo "github.com/labstack/echo/v4"
)

// reportFilter reads ?status, ?phone, ?from, ?to (RFC 3339), ?limit and ?offset.
func reportFilter(c echo.Context, custID int64) (repository.ReportFilter, string) {
	f := repository.ReportFilter{CustomerID: custID, Limit: 50}

	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			f.Limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			f.Offset = n
		}
	}

	if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
		st := model.MessageStatus(raw)
		if !st.Valid() {
			return f, "invalid status"
		}
		f.Status = st
	}

	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		if raw := c.QueryParam(p.name); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return f, "invalid " + p.name
			}
			*p.dst = ts
		}
	}

	f.Phone = util.NormalizePhone(c.QueryParam("phone"))
	return f, ""
}

func listMessagesHandler(reports repository.ReportsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		custID, ok := middleware.CustomerIDFromCtx(c)
		if !ok || custID <= 0 {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		f, bad := reportFilter(c, custID)
		if bad != "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": bad})
		}

		msgs, err := reports.List(c.Request().Context(), f)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   f.Limit,
			"offset":  f.Offset,
			"count":   len(msgs),
			"results": msgs,
		})
	}
}

func statusSummaryHandler(reports repository.ReportsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		custID, ok := middleware.CustomerIDFromCtx(c)
		if !ok || custID <= 0 {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		f, bad := reportFilter(c, custID)
		if bad != "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": bad})
		}

		counts, err := reports.CountByStatus(c.Request().Context(), f)
		if err != nil {
			c.Logger().Errorf("clickhouse summary failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		var total uint64
		for _, sc := range counts {
			total += sc.Count
		}
		return c.JSON(http.StatusOK, map[string]any{
			"total":    total,
			"statuses": counts,
		})
	}
}
