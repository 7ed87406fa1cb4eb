package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/hirehub/internal/billing"
	"github.com/smallbiznis/hirehub/internal/config"
	"github.com/smallbiznis/hirehub/internal/employer"
	"github.com/smallbiznis/hirehub/internal/job"
	"github.com/smallbiznis/hirehub/internal/observability"
	obsmiddleware "github.com/smallbiznis/hirehub/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/hirehub/internal/observability/metrics"
	obstracing "github.com/smallbiznis/hirehub/internal/observability/tracing"
	"github.com/smallbiznis/hirehub/internal/onboarding"
	onboardingdomain "github.com/smallbiznis/hirehub/internal/onboarding/domain"
	"github.com/smallbiznis/hirehub/internal/payment"
	paymentdomain "github.com/smallbiznis/hirehub/internal/payment/domain"
	"github.com/smallbiznis/hirehub/internal/plan"
	plandomain "github.com/smallbiznis/hirehub/internal/plan/domain"
	"github.com/smallbiznis/hirehub/internal/providers"
	"github.com/smallbiznis/hirehub/internal/ratelimit"
	"github.com/smallbiznis/hirehub/internal/subscription"
	"github.com/smallbiznis/hirehub/internal/verification"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	providers.Module,
	ratelimit.Module,
	plan.Module,
	employer.Module,
	job.Module,
	verification.Module,
	subscription.Module,
	billing.Module,
	payment.Module,
	onboarding.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log = log.Named("http.server")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("listening", zap.String("addr", cfg.HTTPAddr))
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
	engine        *gin.Engine
	cfg           config.Config
	log           *zap.Logger
	planSvc       plandomain.Service
	onboardingSvc onboardingdomain.Service
	paymentSvc    paymentdomain.Service
	reconciler    paymentdomain.Reconciler
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Log           *zap.Logger
	PlanSvc       plandomain.Service
	OnboardingSvc onboardingdomain.Service
	PaymentSvc    paymentdomain.Service
	Reconciler    paymentdomain.Reconciler
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.handler"),
		planSvc:       p.PlanSvc,
		onboardingSvc: p.OnboardingSvc,
		paymentSvc:    p.PaymentSvc,
		reconciler:    p.Reconciler,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Plans --------
	api.GET("/plans", s.ListPlans)

	// -------- Onboarding --------
	api.POST("/employers", s.CreateEmployer)
	api.GET("/employers/:id", s.GetEmployer)
	api.PUT("/employers/:id/profile", s.UpsertProfile)
	api.POST("/employers/:id/plan", s.ChoosePlan)
	api.POST("/employers/:id/jobs", s.CreateDraftJob)
	api.POST("/employers/:id/verification", s.SubmitVerification)

	// -------- Payments --------
	api.POST("/payments/transactions", s.CreateTransaction)
	api.POST("/payments/webhooks/midtrans", s.HandleMidtransWebhook)
	api.GET("/payments/:orderId", s.GetPayment)
	api.GET("/payments/:orderId/receipt", s.GetReceipt)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
