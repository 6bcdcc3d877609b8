package server

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hlmartins/invoice-agent-be/internal/config"
	"github.com/hlmartins/invoice-agent-be/internal/handler"
	"github.com/hlmartins/invoice-agent-be/internal/middleware"
	"github.com/hlmartins/invoice-agent-be/pkg/logger"
)

type Server struct {
	echo           *echo.Echo
	cfg            *config.Config
	logger         *logger.Logger
	invoiceHandler *handler.InvoiceHandler
	healthHandler  *handler.HealthHandler
}

func New(
	cfg *config.Config,
	log *logger.Logger,
	invoiceHandler *handler.InvoiceHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:           e,
		cfg:            cfg,
		logger:         log,
		invoiceHandler: invoiceHandler,
		healthHandler:  healthHandler,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.cfg.Server.Host, s.cfg.Server.Port)
	s.logger.Info(context.Background(), "Starting HTTP server",
		"address", addr,
	)

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.echo.Use(echoMiddleware.Recover())
	s.echo.Use(echoMiddleware.CORS())
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.Logging(s.logger))
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthHandler.Check)
	s.echo.GET("/health/ready", s.healthHandler.Ready)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/v1")
	v1.GET("/", s.invoiceHandler.Info)
	v1.POST("/process-invoice", s.invoiceHandler.ProcessInvoice)
	v1.GET("/invoices/:id", s.invoiceHandler.GetInvoice)
}

func (s *Server) Handler() *echo.Echo {
	return s.echo
}
