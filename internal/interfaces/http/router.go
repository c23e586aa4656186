package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/auth"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/compliance"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/usecase"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	CompanyUC  *usecase.CompanyUseCase
	CustomerUC *usecase.CustomerUseCase
	DocumentUC *compliance.DocumentUseCase
	SubmitUC   *compliance.SubmitUseCase
	AuditUC    *compliance.AuditUseCase
	Registry   *compliance.SeriesRegistry
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth y alta de empresa (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)

	companyHandler := NewCompanyHandler(deps.CompanyUC)
	api.Post("/companies", companyHandler.Create)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleOperator, entity.RoleAuditor)
	writers := RequireRole(entity.RoleAdmin, entity.RoleOperator)
	admins := RequireRole(entity.RoleAdmin)
	auditors := RequireRole(entity.RoleAdmin, entity.RoleAuditor)

	protected.Get("/companies/me", anyRole, companyHandler.Me)

	customerHandler := NewCustomerHandler(deps.CustomerUC)
	protected.Post("/customers", writers, customerHandler.Create)
	protected.Get("/customers/:id", anyRole, customerHandler.GetByID)

	documentHandler := NewDocumentHandler(deps.DocumentUC, deps.SubmitUC)
	protected.Post("/documents", writers, documentHandler.Create)
	protected.Get("/documents/:id", anyRole, documentHandler.GetByID)
	protected.Post("/documents/:id/submit", writers, documentHandler.Submit)
	protected.Get("/documents/:id/qrcode", anyRole, documentHandler.QRCode)
	protected.Get("/documents/:id/pdf", anyRole, documentHandler.PDF)

	seriesHandler := NewSeriesHandler(deps.Registry)
	protected.Get("/series", anyRole, seriesHandler.List)
	protected.Get("/series/resolve", anyRole, seriesHandler.Resolve)
	protected.Post("/series", admins, seriesHandler.Create)
	protected.Post("/series/:id/validation-code", admins, seriesHandler.AttachValidationCode)
	protected.Post("/series/:id/deactivate", admins, seriesHandler.Deactivate)
	protected.Delete("/series/:id", admins, seriesHandler.Delete)

	chainHandler := NewChainHandler(deps.AuditUC)
	protected.Get("/chain/verify", auditors, chainHandler.Verify)
	protected.Post("/chain/release", admins, chainHandler.Release)
}
