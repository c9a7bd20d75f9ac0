package http

import (
	"context"
	"log"
	"net/http"

	"github.com/jmehdipour/sms-broker/internal/http/middleware"
	"github.com/jmehdipour/sms-broker/internal/metrics"
	"github.com/jmehdipour/sms-broker/internal/model"
	"github.com/jmehdipour/sms-broker/internal/repository"
	smsSvc "github.com/jmehdipour/sms-broker/internal/service/sms"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SMSService is what the handlers need from the send service.
type SMSService interface {
	Send(ctx context.Context, src smsSvc.Source, customerID int64, phone, text string) (model.Message, error)
	Get(ctx context.Context, customerID int64, id string) (model.Message, error)
}

var _ SMSService = (*smsSvc.Service)(nil)

type Server struct{ e *echo.Echo }

func NewServer(svc SMSService, codeSvc CodesService, customers repository.CustomersRepository, reports repository.ReportsRepository) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// routes
	v1 := e.Group("/v1", middleware.APIKeyMiddleware(customers))
	v1.POST("/sms/send", sendSMSHandler(svc))
	v1.GET("/sms/:id", getSMSHandler(svc))
	v1.POST("/codes/send", sendCodeHandler(codeSvc))
	v1.POST("/codes/check", checkCodeHandler(codeSvc))
	v1.GET("/reports/messages", listMessagesHandler(reports))
	v1.GET("/reports/summary", statusSummaryHandler(reports))

	return &Server{e: e}
}

func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
