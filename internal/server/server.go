package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/hostbill/internal/audit"
	auditdomain "github.com/smallbiznis/hostbill/internal/audit/domain"
	"github.com/smallbiznis/hostbill/internal/config"
	"github.com/smallbiznis/hostbill/internal/customer"
	customerdomain "github.com/smallbiznis/hostbill/internal/customer/domain"
	"github.com/smallbiznis/hostbill/internal/gateway/stripe"
	"github.com/smallbiznis/hostbill/internal/hosting"
	hostingdomain "github.com/smallbiznis/hostbill/internal/hosting/domain"
	"github.com/smallbiznis/hostbill/internal/invoice"
	invoicedomain "github.com/smallbiznis/hostbill/internal/invoice/domain"
	obslogger "github.com/smallbiznis/hostbill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/hostbill/internal/observability/metrics"
	obstracing "github.com/smallbiznis/hostbill/internal/observability/tracing"
	"github.com/smallbiznis/hostbill/internal/order"
	orderdomain "github.com/smallbiznis/hostbill/internal/order/domain"
	"github.com/smallbiznis/hostbill/internal/plan"
	plandomain "github.com/smallbiznis/hostbill/internal/plan/domain"
	"github.com/smallbiznis/hostbill/internal/providers/pdf"
	"github.com/smallbiznis/hostbill/internal/ratelimit"
	"github.com/smallbiznis/hostbill/internal/transaction"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	audit.Module,
	customer.Module,
	plan.Module,
	hosting.Module,
	invoice.Module,
	transaction.Module,
	order.Module,
	stripe.Module,
	pdf.Module,
	ratelimit.Module,
	obsmetrics.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	genID        *snowflake.Node
	orderSvc     orderdomain.Service
	planSvc      plandomain.Service
	customerSvc  customerdomain.Service
	hostingSvc   hostingdomain.LifecycleService
	invoiceSvc   invoicedomain.Service
	auditSvc     auditdomain.Service
	orderLimiter *ratelimit.OrderLimiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	GenID        *snowflake.Node
	OrderSvc     orderdomain.Service
	PlanSvc      plandomain.Service
	CustomerSvc  customerdomain.Service
	HostingSvc   hostingdomain.LifecycleService
	InvoiceSvc   invoicedomain.Service
	AuditSvc     auditdomain.Service
	OrderLimiter *ratelimit.OrderLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		genID:        p.GenID,
		orderSvc:     p.OrderSvc,
		planSvc:      p.PlanSvc,
		customerSvc:  p.CustomerSvc,
		hostingSvc:   p.HostingSvc,
		invoiceSvc:   p.InvoiceSvc,
		auditSvc:     p.AuditSvc,
		orderLimiter: p.OrderLimiter,
	}

	s.registerAPIRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Orders --------
	api.POST("/orders", s.orderRateLimit(), s.PlaceOrder)

	// -------- Plans --------
	api.GET("/plans", s.ListPlans)
	api.GET("/plans/:slug", s.GetPlan)
	api.POST("/plans", s.CreatePlan)
	api.POST("/addons", s.CreateAddOn)

	// -------- Services --------
	api.GET("/services", s.ListServices)
	api.GET("/services/:id", s.GetService)
	api.POST("/services/:id/suspend", s.SuspendService)
	api.POST("/services/:id/cancel", s.CancelService)
	api.POST("/services/:id/reactivate", s.ReactivateService)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoice)
	api.GET("/invoices/:id/pdf", s.GetInvoicePDF)

	// -------- Customers --------
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomer)
	api.PUT("/customers/:id/default-payment-method", s.SetDefaultPaymentMethod)
}
