package router

import (
	"ewarranty/internal/config"
	"ewarranty/internal/domain"
	"ewarranty/internal/handler"
	"ewarranty/internal/infra"
	"ewarranty/internal/middleware"
	"ewarranty/internal/repository"
	"ewarranty/internal/service"
	"ewarranty/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the infrastructure pieces built by the composition root.
type Deps struct {
	DB           *gorm.DB
	Redis        *redis.Client
	Storage      infra.Storage
	MailerCB     *infra.CircuitBreaker
	Jobs         service.JobQueue
	APILimiter   *middleware.RateLimiter
	LoginLimiter *middleware.RateLimiter
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Jobs == nil {
		d.Jobs = worker.NewDispatcher(d.Redis)
	}
	if d.LoginLimiter == nil {
		d.LoginLimiter = middleware.NewLoginRateLimiter()
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.ErrorHandler())
	if d.APILimiter != nil {
		r.Use(d.APILimiter.Middleware())
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	txr := repository.NewTransactor(d.DB)
	seqRepo := repository.NewSequenceRepository(d.DB)
	userRepo := repository.NewUserRepository(d.DB)
	shopRepo := repository.NewShopRepository(d.DB)
	catalogRepo := repository.NewCatalogRepository(d.DB)
	productRepo := repository.NewProductRepository(d.DB)
	allocationRepo := repository.NewAllocationRepository(d.DB)
	warrantyRepo := repository.NewWarrantyRepository(d.DB)
	claimRepo := repository.NewClaimRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	idSvc := service.NewIdentifierService(seqRepo, shopRepo, warrantyRepo)
	authSvc := service.NewAuthService(userRepo, shopRepo, cfg)
	shopSvc := service.NewShopService(txr, shopRepo, userRepo, idSvc, cfg.DefaultShopPassword)
	catalogSvc := service.NewCatalogService(txr, catalogRepo, productRepo, allocationRepo, d.Redis)
	ledger := service.NewAllocationService(txr, allocationRepo, productRepo, shopRepo, warrantyRepo)
	warrantySvc := service.NewWarrantyService(txr, warrantyRepo, claimRepo, allocationRepo, shopRepo, ledger, idSvc, d.Jobs)
	claimSvc := service.NewClaimService(txr, claimRepo, warrantyRepo, shopRepo, idSvc, d.Jobs)
	exportSvc := service.NewExportService(warrantyRepo)
	uploadSvc := service.NewUploadService(d.Storage, cfg.UploadMaxBytes)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	shopsH := handler.NewShopsHandler(shopSvc, ledger)
	allocationsH := handler.NewAllocationsHandler(ledger)
	warrantiesH := handler.NewWarrantiesHandler(warrantySvc, idSvc, exportSvc)
	claimsH := handler.NewClaimsHandler(claimSvc, idSvc)
	uploadsH := handler.NewUploadsHandler(uploadSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.MailerCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", d.LoginLimiter.Middleware(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	if d.Storage != nil && d.Storage.Name() == "local" && cfg.UploadDir != "" {
		r.Static("/uploads", cfg.UploadDir)
	}

	// Car owners look up their warranty without an account.
	r.GET("/v1/public/warranties/search", warrantiesH.PublicSearch)

	// Protected routes. Shop scoping of individual records happens in the
	// services; RequireRole only guards admin-only endpoints.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	{
		v1.GET("/auth/me", authH.Me)

		users := v1.Group("/users", adminOnly)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PATCH("/:id/password", usersH.ChangePassword)
			users.PATCH("/:id/active", usersH.SetActive)
		}

		v1.GET("/states", shopsH.ListStates)
		v1.GET("/car-parts", shopsH.ListCarParts)

		cat := v1.Group("/catalog")
		{
			cat.GET("/brands", catalogH.ListBrands)
			cat.GET("/brands/:id/types", catalogH.ListTypes)
			cat.GET("/types/:id/series", catalogH.ListSeries)
			cat.GET("/series/:id/names", catalogH.ListNames)
			cat.GET("/resolve", catalogH.Resolve)

			cat.POST("/brands", adminOnly, catalogH.CreateBrand)
			cat.POST("/types", adminOnly, catalogH.CreateType)
			cat.POST("/series", adminOnly, catalogH.CreateSeries)
			cat.POST("/names", adminOnly, catalogH.CreateName)
		}

		v1.GET("/products", catalogH.ListProducts)
		v1.GET("/products/:id", catalogH.GetProduct)
		prods := v1.Group("/products", adminOnly)
		{
			prods.POST("", catalogH.CreateProduct)
			prods.PUT("/:id", catalogH.UpdateProduct)
			prods.PATCH("/:id/active", catalogH.SetProductActive)
		}

		shops := v1.Group("/shops")
		{
			shops.GET("/generate-branch-code/:state_code", adminOnly, shopsH.GenerateBranchCode)
			shops.POST("", adminOnly, shopsH.Create)
			shops.GET("", adminOnly, shopsH.List)
			shops.PUT("/:id", adminOnly, shopsH.Update)
			shops.GET("/:id", shopsH.Get)
			shops.GET("/:id/allocations", shopsH.Allocations)
		}

		allocs := v1.Group("/allocations", adminOnly)
		{
			allocs.POST("", allocationsH.Create)
			allocs.GET("", allocationsH.List)
			allocs.GET("/:id", allocationsH.Get)
			allocs.PUT("/:id", allocationsH.Update)
			allocs.DELETE("/:id", allocationsH.Delete)
		}

		w := v1.Group("/warranties")
		{
			w.GET("/generate-next-no", warrantiesH.GenerateNextNo)
			w.GET("/export", adminOnly, warrantiesH.Export)
			w.POST("", warrantiesH.Create)
			w.GET("", warrantiesH.List)
			w.GET("/:id", warrantiesH.Get)
			w.PUT("/:id", warrantiesH.Update)
			w.POST("/:id/parts", warrantiesH.AddPart)
			w.DELETE("/:id/parts/:partId", warrantiesH.RemovePart)
			w.PUT("/:id/approval", adminOnly, warrantiesH.SetApproval)
		}
		v1.PUT("/warranty-parts/:id/approval", adminOnly, warrantiesH.SetPartApproval)
		v1.PUT("/warranty-parts/:id/status", warrantiesH.SetPartStatus)

		cl := v1.Group("/claims")
		{
			cl.GET("/generate-next-no", claimsH.GenerateNextNo)
			cl.POST("", claimsH.Create)
			cl.GET("", claimsH.List)
			cl.GET("/:id", claimsH.Get)
			cl.PUT("/:id", claimsH.Update)
			cl.PUT("/:id/approval", adminOnly, claimsH.SetApproval)
			cl.PUT("/:id/status", claimsH.SetStatus)
		}

		cwp := v1.Group("/claim-warranty-parts")
		{
			cwp.POST("", claimsH.AddPart)
			cwp.PUT("/:id", claimsH.UpdatePart)
			cwp.DELETE("/:id", claimsH.RemovePart)
			cwp.PUT("/:id/approval", adminOnly, claimsH.SetPartApproval)
			cwp.PUT("/:id/status", claimsH.SetPartStatus)
		}

		v1.POST("/uploads/file", uploadsH.Upload)
	}

	// Swagger UI, outside production only
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
