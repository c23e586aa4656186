package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/auth"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/usecase"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/bootstrap"
	httpRouter "github.com/sun2dayo/portugal-compliance-sub001/internal/interfaces/http"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/config"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.AT.Store).
		Str("tax_region", cfg.AT.TaxRegion).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	stores, closeStores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir persistencia")
	}
	defer closeStores()

	fiscal, err := bootstrap.NewFiscal(cfg, stores, log)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración fiscal AT inválida")
	}
	// La llave se comprueba al arrancar pero no impide servir lecturas: los submits
	// fallarán cerrados con KEY_* hasta que la llave esté disponible.
	if _, err := fiscal.Signers.Signer(ctx); err != nil {
		logger.Fiscal(log.Warn(), err).Str("key_path", fiscal.Custody.Path()).Msg("llave de firma no disponible")
	}

	authUC := auth.NewAuthUseCase(stores.Users, stores.Companies, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "PT Fiscal API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:     authUC,
		CompanyUC:  usecase.NewCompanyUseCase(stores.Companies),
		CustomerUC: usecase.NewCustomerUseCase(stores.Customers),
		DocumentUC: fiscal.Documents,
		SubmitUC:   fiscal.Submit,
		AuditUC:    fiscal.Audit,
		Registry:   fiscal.Registry,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range quit {
		// SIGHUP: rotación de llave, se vuelve a leer en el próximo submit.
		if sig == syscall.SIGHUP {
			fiscal.Custody.Invalidate()
			log.Info().Msg("caché de llave invalidada")
			continue
		}
		break
	}

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
