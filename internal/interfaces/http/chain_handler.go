package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/compliance"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/dto"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
)

// ChainHandler auditoría y liberación de cadenas de hash.
type ChainHandler struct {
	audit *compliance.AuditUseCase
}

// NewChainHandler construye el handler.
func NewChainHandler(audit *compliance.AuditUseCase) *ChainHandler {
	return &ChainHandler{audit: audit}
}

func scopeFrom(c *fiber.Ctx, in dto.ChainScopeRequest) (entity.ScopeKey, bool) {
	if in.NamingSeries == "" || in.DocType == "" {
		return entity.ScopeKey{}, false
	}
	return entity.ScopeKey{CompanyID: GetCompanyID(c), NamingSeries: in.NamingSeries, DocType: in.DocType}, true
}

// Verify godoc
// @Summary      Verificar la cadena de un ámbito
// @Description  Recalcula hashes, enlaces, ATCUD y firmas. Una rotura bloquea el ámbito.
// @Tags         chain
// @Produce      json
// @Security     BearerAuth
// @Param        naming_series  query  string  true  "Serie de numeración"
// @Param        doc_type       query  string  true  "Tipo de documento del ERP"
// @Success      200  {object}  dto.ChainReport
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/chain/verify [get]
func (h *ChainHandler) Verify(c *fiber.Ctx) error {
	var in dto.ChainScopeRequest
	if err := c.QueryParser(&in); err != nil {
		return badBody(c)
	}
	scope, ok := scopeFrom(c, in)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "naming_series y doc_type son requeridos"})
	}
	report, err := h.audit.VerifyScope(c.UserContext(), scope)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// Release godoc
// @Summary      Liberar un ámbito bloqueado
// @Tags         chain
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  dto.ChainScopeRequest  true  "Ámbito"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/chain/release [post]
func (h *ChainHandler) Release(c *fiber.Ctx) error {
	var in dto.ChainScopeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	scope, ok := scopeFrom(c, in)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "naming_series y doc_type son requeridos"})
	}
	if err := h.audit.Release(c.UserContext(), scope, GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
