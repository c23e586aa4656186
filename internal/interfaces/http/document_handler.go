package http

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/compliance"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/application/dto"
)

// DocumentHandler borradores, emisión y representaciones de documentos fiscales.
type DocumentHandler struct {
	docs   *compliance.DocumentUseCase
	submit *compliance.SubmitUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(docs *compliance.DocumentUseCase, submit *compliance.SubmitUseCase) *DocumentHandler {
	return &DocumentHandler{docs: docs, submit: submit}
}

// documentID los IDs llevan "/" (FT2025A/1): el cliente los envía codificados (FT2025A%2F1).
func documentID(c *fiber.Ctx) string {
	raw := c.Params("id")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

// Create godoc
// @Summary      Crear borrador de documento fiscal
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateDocumentRequest  true  "Cabecera y líneas de impuesto"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.docs.Create(c.UserContext(), GetCompanyID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener documento
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del documento (URL-encoded)"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.docs.Get(c.UserContext(), GetCompanyID(c), documentID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Submit godoc
// @Summary      Emitir documento (ATCUD, firma, hash, QR)
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del documento (URL-encoded)"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/submit [post]
func (h *DocumentHandler) Submit(c *fiber.Ctx) error {
	out, err := h.submit.Submit(c.UserContext(), GetCompanyID(c), documentID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// QRCode godoc
// @Summary      Código QR del documento emitido
// @Description  PNG por defecto; con format=datauri devuelve JSON con payload y data URI.
// @Tags         documents
// @Produce      png
// @Produce      json
// @Security     BearerAuth
// @Param        id      path   string  true   "ID del documento (URL-encoded)"
// @Param        format  query  string  false  "png | datauri"
// @Param        size    query  int     false  "lado en píxeles"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/qrcode [get]
func (h *DocumentHandler) QRCode(c *fiber.Ctx) error {
	id := documentID(c)
	if c.Query("format") == "datauri" {
		out, err := h.docs.QRCodeDataURI(c.UserContext(), GetCompanyID(c), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	}
	size := 0
	if s := c.Query("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > 2000 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "size debe estar entre 0 y 2000"})
		}
		size = n
	}
	png, _, err := h.docs.QRCode(c.UserContext(), GetCompanyID(c), id, size)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// PDF godoc
// @Summary      Representación impresa del documento emitido
// @Tags         documents
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del documento (URL-encoded)"
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/pdf [get]
func (h *DocumentHandler) PDF(c *fiber.Ctx) error {
	out, filename, err := h.docs.PDF(c.UserContext(), GetCompanyID(c), documentID(c))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+filename+`"`)
	return c.Send(out)
}
