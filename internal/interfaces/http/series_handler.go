package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/compliance"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/dto"
)

// SeriesHandler administración y resolución de series AT.
type SeriesHandler struct {
	registry *compliance.SeriesRegistry
}

// NewSeriesHandler construye el handler.
func NewSeriesHandler(registry *compliance.SeriesRegistry) *SeriesHandler {
	return &SeriesHandler{registry: registry}
}

// Create godoc
// @Summary      Registrar serie AT
// @Tags         series
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateSeriesRequest  true  "Serie"
// @Success      201   {object}  dto.SeriesResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/series [post]
func (h *SeriesHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSeriesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.registry.CreateSeries(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar series de la empresa
// @Tags         series
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  dto.SeriesResponse
// @Router       /api/series [get]
func (h *SeriesHandler) List(c *fiber.Ctx) error {
	out, err := h.registry.List(c.UserContext(), GetCompanyID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Resolve godoc
// @Summary      Resolver la serie activa para un tipo, prefijo y fecha
// @Tags         series
// @Produce      json
// @Security     BearerAuth
// @Param        document_type  query  string  true  "FT, FS, FR, NC, ND, FC"
// @Param        naming_series  query  string  true  "Prefijo de la serie (FT2025A)"
// @Param        posting_date   query  string  true  "YYYY-MM-DD"
// @Success      200  {object}  dto.SeriesResolutionResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/series/resolve [get]
func (h *SeriesHandler) Resolve(c *fiber.Ctx) error {
	docType := c.Query("document_type")
	prefix := c.Query("naming_series")
	posting, err := time.Parse("2006-01-02", c.Query("posting_date"))
	if docType == "" || prefix == "" || err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "document_type, naming_series y posting_date (YYYY-MM-DD) son requeridos"})
	}
	res, err := h.registry.Resolve(c.UserContext(), GetCompanyID(c), docType, prefix, posting)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SeriesResolutionResponse{SeriesID: res.SeriesID, ValidationCode: res.ValidationCode})
}

// AttachValidationCode godoc
// @Summary      Asignar código de validación AT (una sola vez)
// @Tags         series
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string  true  "ID de la serie"
// @Param        body  body  dto.AttachValidationCodeRequest  true  "Código"
// @Success      200   {object}  dto.SeriesResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/series/{id}/validation-code [post]
func (h *SeriesHandler) AttachValidationCode(c *fiber.Ctx) error {
	var in dto.AttachValidationCodeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.registry.AttachValidationCode(c.UserContext(), GetCompanyID(c), c.Params("id"), in.ValidationCode)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Deactivate godoc
// @Summary      Desactivar serie
// @Tags         series
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la serie"
// @Success      204
// @Router       /api/series/{id}/deactivate [post]
func (h *SeriesHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.registry.Deactivate(c.UserContext(), GetCompanyID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete godoc
// @Summary      Eliminar serie sin documentos
// @Tags         series
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la serie"
// @Success      204
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/series/{id} [delete]
func (h *SeriesHandler) Delete(c *fiber.Ctx) error {
	if err := h.registry.Delete(c.UserContext(), GetCompanyID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
