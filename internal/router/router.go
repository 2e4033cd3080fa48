package router

import (
	"time"

	"cuentame/internal/config"
	"cuentame/internal/handler"
	"cuentame/internal/infra"
	"cuentame/internal/metrics"
	"cuentame/internal/middleware"
	"cuentame/internal/model"
	"cuentame/internal/repository"
	"cuentame/internal/service"

	sentrygin "github.com/getsentry/sentry-go/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// encolador receives background jobs (emails, image association).
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, encolador service.Encolador) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	if cfg.SentryDSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(600, time.Minute)) // 600 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	var (
		locker   service.Locker
		denylist *infra.RedisDenylist
	)
	if rdb != nil {
		locker = infra.NewRedisLocker(rdb)
		denylist = infra.NewRedisDenylist(rdb)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	adminRepo := repository.NewAdministradorRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	predefinidaRepo := repository.NewCajaPredefinidaRepository(db)
	plantillaRepo := repository.NewCajaPersonalizadaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	direccionRepo := repository.NewDireccionRepository(db)
	ordenRepo := repository.NewOrdenRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authCfg := service.AuthConfig{
		JWTSecret:   cfg.JWTSecret,
		TokenTTL:    cfg.TokenTTL(),
		OTPTTL:      cfg.OTPTTL(),
		RecoveryTTL: cfg.RecoveryTTL(),
		FrontendURL: cfg.FrontendURL,
	}
	var revocador service.Revocador
	if denylist != nil {
		revocador = denylist
	}
	usuarioSvc := service.NewUsuarioService(usuarioRepo, encolador, revocador, authCfg, nil)
	adminSvc := service.NewAdminService(adminRepo, encolador, authCfg, cfg.PublicURL, nil)
	productoSvc := service.NewProductoService(productoRepo, encolador)
	predefinidaSvc := service.NewCajaPredefinidaService(predefinidaRepo, encolador)
	plantillaSvc := service.NewCajaPersonalizadaService(plantillaRepo, productoRepo, encolador)
	cajaSvc := service.NewCajaService(cajaRepo, productoRepo, encolador, cfg.EditWindow(), nil)
	direccionSvc := service.NewDireccionService(direccionRepo, locker, cfg.MaxDirecciones)
	ordenSvc := service.NewOrdenService(ordenRepo, direccionRepo, predefinidaRepo, plantillaRepo, productoRepo, cfg.PDFStoragePath)

	// ── Handlers ─────────────────────────────────────────────────────────────
	uploads := handler.Uploads{Dir: cfg.UploadTmpPath}
	usuariosH := handler.NewUsuariosHandler(usuarioSvc)
	adminH := handler.NewAdminHandler(adminSvc)
	productosH := handler.NewProductosHandler(productoSvc, uploads)
	predefinidasH := handler.NewCajasPredefinidasHandler(predefinidaSvc, uploads)
	plantillasH := handler.NewCajasPersonalizadasHandler(plantillaSvc, uploads)
	cajasH := handler.NewCajasHandler(cajaSvc, uploads)
	direccionesH := handler.NewDireccionesHandler(direccionSvc)
	ordenesH := handler.NewOrdenesHandler(ordenSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", metrics.Handler())

	pub := r.Group("/v1")
	{
		pub.POST("/usuarios/registro", usuariosH.Registro)
		pub.POST("/usuarios/login", middleware.LoginRateLimiter(), usuariosH.Login)
		pub.POST("/usuarios/otp/enviar", middleware.LoginRateLimiter(), usuariosH.EnviarOTP)
		pub.POST("/usuarios/otp/verificar", middleware.LoginRateLimiter(), usuariosH.VerificarOTP)
		pub.POST("/usuarios/recuperar", middleware.LoginRateLimiter(), usuariosH.Recuperar)
		pub.GET("/usuarios/recuperar/:token", usuariosH.VerificarToken)
		pub.POST("/usuarios/recuperar/:token", usuariosH.NuevaPassword)

		pub.POST("/admin/registro", adminH.Registro)
		pub.GET("/admin/confirmar/:token", adminH.Confirmar)
		pub.POST("/admin/login", middleware.LoginRateLimiter(), adminH.Login)

		pub.GET("/productos", productosH.Listar)
		pub.GET("/productos/:id", productosH.ObtenerPorID)
		pub.GET("/cajas-predefinidas", predefinidasH.Listar)
		pub.GET("/cajas-predefinidas/:id", predefinidasH.ObtenerPorID)
		pub.GET("/cajas-personalizadas", plantillasH.Listar)
		pub.GET("/cajas-personalizadas/:id", plantillasH.ObtenerPorID)
	}

	// Protected routes
	var tokenDenylist middleware.TokenDenylist
	if denylist != nil {
		tokenDenylist = denylist
	}
	jwtMW := middleware.JWTAuth(cfg.JWTSecret, tokenDenylist)
	anyRole := middleware.RequireRole(model.RolCliente, model.RolAdmin)
	adminOnly := middleware.RequireRole(model.RolAdmin)

	v1 := r.Group("/v1", jwtMW, anyRole)
	{
		v1.GET("/usuarios/perfil", usuariosH.Perfil)
		v1.POST("/usuarios/logout", usuariosH.Logout)

		ordenes := v1.Group("/ordenes")
		{
			ordenes.POST("", ordenesH.Crear)
			ordenes.GET("", ordenesH.ListarPropias)
			ordenes.GET("/:id", ordenesH.ObtenerPorID)
			ordenes.GET("/:id/comprobante", ordenesH.Comprobante)
			ordenes.PUT("/:id/estado", ordenesH.CambiarEstado)
			ordenes.DELETE("/:id", ordenesH.Eliminar)
		}

		cajas := v1.Group("/cajas")
		{
			cajas.POST("", cajasH.Crear)
			cajas.GET("", cajasH.Listar)
			cajas.GET("/:id", cajasH.ObtenerPorID)
			cajas.PUT("/:id", cajasH.Actualizar)
			cajas.DELETE("/:id", cajasH.Eliminar)
			cajas.PUT("/:id/imagen", cajasH.SubirImagen)
			cajas.PUT("/:id/estado", adminOnly, cajasH.CambiarEstado)
		}

		dirs := v1.Group("/direcciones")
		{
			dirs.POST("", direccionesH.Agregar)
			dirs.GET("", direccionesH.Listar)
			dirs.PUT("/:id", direccionesH.Actualizar)
			dirs.PUT("/:id/predeterminada", direccionesH.EstablecerPredeterminada)
			dirs.DELETE("/:id", direccionesH.Eliminar)
		}
	}

	admin := r.Group("/v1", jwtMW, adminOnly)
	{
		admin.GET("/admin/perfil", adminH.Perfil)
		admin.GET("/admin/clientes", usuariosH.ListarClientes)
		admin.DELETE("/admin/clientes/:id", usuariosH.EliminarCliente)
		admin.GET("/admin/ordenes", ordenesH.ListarTodas)
		admin.GET("/admin/usuarios/:id/ordenes", ordenesH.ListarPorUsuario)

		prods := admin.Group("/productos")
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Eliminar)
			prods.PUT("/:id/imagen", productosH.SubirImagen)
		}

		pre := admin.Group("/cajas-predefinidas")
		{
			pre.POST("", predefinidasH.Crear)
			pre.PUT("/:id", predefinidasH.Actualizar)
			pre.DELETE("/:id", predefinidasH.Eliminar)
			pre.PUT("/:id/imagen", predefinidasH.SubirImagen)
		}

		pers := admin.Group("/cajas-personalizadas")
		{
			pers.POST("", plantillasH.Crear)
			pers.PUT("/:id", plantillasH.Actualizar)
			pers.DELETE("/:id", plantillasH.Eliminar)
			pers.PUT("/:id/imagen", plantillasH.SubirImagen)
		}
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
