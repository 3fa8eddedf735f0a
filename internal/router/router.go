package router

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/Mousaahmad63636/POS-sub001/internal/config"
	"github.com/Mousaahmad63636/POS-sub001/internal/dto"
	"github.com/Mousaahmad63636/POS-sub001/internal/events"
	"github.com/Mousaahmad63636/POS-sub001/internal/handler"
	"github.com/Mousaahmad63636/POS-sub001/internal/infra"
	"github.com/Mousaahmad63636/POS-sub001/internal/ledger"
	"github.com/Mousaahmad63636/POS-sub001/internal/middleware"
	"github.com/Mousaahmad63636/POS-sub001/internal/repository"
	"github.com/Mousaahmad63636/POS-sub001/internal/service"
	"github.com/Mousaahmad63636/POS-sub001/internal/worker"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	locker := infra.NewRegisterLocker(rdb)

	guardCfg := infra.OpGuardConfig{
		AcquireTimeout: cfg.GuardAcquireTimeout(),
		MaxRetries:     cfg.GuardMaxRetries,
		BaseDelay:      cfg.GuardBaseDelay(),
	}

	// ── Events ───────────────────────────────────────────────────────────────
	bus := events.NewMemoryBus()

	// Per-entry topics are mirrored raw; drawer.updated bursts are debounced
	// before crossing into Redis so a batch of entries becomes one fan-out.
	events.BridgeToRedis(bus, rdb, events.TopicTransactionChanged, events.TopicSupplierPaymentOccurred)
	bus.Subscribe(events.TopicDrawerUpdated, events.Debounce(events.DefaultSettleDelay,
		func(ctx context.Context, ev events.Event) {
			payload, err := json.Marshal(ev)
			if err != nil {
				return
			}
			if err := rdb.Publish(ctx, "events:"+string(ev.Topic), payload).Err(); err != nil {
				log.Warn().Err(err).Msg("events: drawer.updated publish failed")
			}
		}))

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	drawerRepo := repository.NewDrawerRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo)
	categorySvc := service.NewCategoryService(categoryRepo)

	// Close-of-session summaries go to the supervisor inbox via the job queue.
	notify := func(ctx context.Context, resp *dto.CloseDrawerResponse) {
		if cfg.SupervisorEmail == "" {
			return
		}
		payload := worker.EmailJobPayload{
			ToEmail: cfg.SupervisorEmail,
			Subject: fmt.Sprintf("Drawer closed — register %d, session %d", resp.Session.RegisterID, resp.Session.SessionID),
			Body:    closeSummaryBody(resp),
		}
		if err := dispatcher.EnqueueEmail(ctx, payload); err != nil {
			log.Warn().Err(err).Msg("could not enqueue close summary email")
		}
	}

	drawerSvc := service.NewDrawerService(drawerRepo, bus, locker, guardCfg, notify)
	supplierSvc := service.NewSupplierService(supplierRepo, drawerSvc)

	// In-process resync: once a burst of drawer updates settles, recompute
	// the totals from a fresh snapshot and log them.
	bus.Subscribe(events.TopicDrawerUpdated, service.SummaryRefresher(drawerSvc, events.DefaultSettleDelay,
		func(_ context.Context, ev events.Event, summary ledger.FinancialSummary) {
			log.Debug().
				Uint("session_id", ev.SessionID).
				Str("sales", summary.Sales.String()).
				Str("expenses", summary.Expenses.String()).
				Str("net_cashflow", summary.NetCashflow.String()).
				Msg("drawer: totals refreshed")
		}))

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	categoriesH := handler.NewCategoriesHandler(categorySvc)
	suppliersH := handler.NewSuppliersHandler(supplierSvc)
	drawerH := handler.NewDrawerHandler(drawerSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, supervisor, admin — declared per-endpoint
		drawer := v1.Group("/drawer")
		{
			drawer.POST("/open", middleware.RequireRole("cashier", "supervisor", "admin"), drawerH.Open)
			drawer.POST("/cash-in", middleware.RequireRole("cashier", "supervisor", "admin"), drawerH.AddCash)
			drawer.POST("/cash-out", middleware.RequireRole("cashier", "supervisor", "admin"), drawerH.RemoveCash)
			drawer.POST("/transaction", middleware.RequireRole("cashier", "supervisor", "admin"), drawerH.RecordTransaction)
			drawer.POST("/close", middleware.RequireRole("cashier", "supervisor", "admin"), drawerH.Close)
			drawer.GET("/active/:register", middleware.RequireRole("cashier", "supervisor", "admin"), drawerH.GetActive)
			drawer.GET("/:id/report", middleware.RequireRole("cashier", "supervisor", "admin"), drawerH.GetReport)
			drawer.GET("/summary", middleware.RequireRole("supervisor", "admin"), drawerH.GetSummary)
			drawer.GET("/drift/:register", middleware.RequireRole("supervisor", "admin"), drawerH.GetDrift)
			drawer.POST("/reconcile/:register", middleware.RequireRole("supervisor", "admin"), drawerH.Reconcile)
			drawer.GET("/history", middleware.RequireRole("supervisor", "admin"), drawerH.History)
		}

		// Products — all authenticated roles can read (catalog sync)
		v1.GET("/products", middleware.RequireRole("cashier", "supervisor", "admin"), productsH.List)
		v1.GET("/products/:id", middleware.RequireRole("cashier", "supervisor", "admin"), productsH.Get)
		v1.GET("/products/barcode/:barcode", middleware.RequireRole("cashier", "supervisor", "admin"), productsH.GetByBarcode)
		v1.PATCH("/products/:id/stock", middleware.RequireRole("supervisor", "admin"), productsH.AdjustStock)
		// Write operations — admin only
		prods := v1.Group("/products", middleware.RequireRole("admin"))
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Delete)
		}

		// Categories — admin can write, all authenticated can read
		v1.GET("/categories", middleware.RequireRole("cashier", "supervisor", "admin"), categoriesH.List)
		categories := v1.Group("/categories", middleware.RequireRole("admin"))
		{
			categories.POST("", categoriesH.Create)
			categories.PUT("/:id", categoriesH.Update)
			categories.DELETE("/:id", categoriesH.Deactivate)
		}

		suppliers := v1.Group("/suppliers", middleware.RequireRole("supervisor", "admin"))
		{
			suppliers.POST("", suppliersH.Create)
			suppliers.GET("", suppliersH.List)
			suppliers.GET("/:id", suppliersH.Get)
			suppliers.PUT("/:id", suppliersH.Update)
			suppliers.DELETE("/:id", suppliersH.Delete)
			suppliers.POST("/:id/pay", suppliersH.Pay)
		}

		users := v1.Group("/users", middleware.RequireRole("admin"))
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Deactivate)
			users.PATCH("/:id/reactivate", usersH.Reactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

func closeSummaryBody(resp *dto.CloseDrawerResponse) string {
	return fmt.Sprintf(
		"Register %d closed by %s.\n\n"+
			"Opening balance: %s\n"+
			"Final balance:   %s\n"+
			"Counted:         %s\n"+
			"Difference:      %s\n\n"+
			"Sales:             %s\n"+
			"Returns:           %s\n"+
			"Expenses:          %s\n"+
			"Supplier payments: %s\n"+
			"Debt payments:     %s\n"+
			"Net earnings:      %s\n\n"+
			"Duration: %d minutes",
		resp.Session.RegisterID, resp.Session.CashierName,
		resp.Session.OpeningBalance, resp.Session.CurrentBalance,
		resp.CountedAmount, resp.Difference,
		resp.Summary.Sales, resp.Summary.Returns, resp.Summary.Expenses,
		resp.Summary.SupplierPayments, resp.Summary.DebtPayments,
		resp.Summary.NetEarnings,
		resp.DurationMins,
	)
}
