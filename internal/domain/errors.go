package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio genéricos (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Kind clasifica los errores fiscales según la política de tratamiento.
type Kind string

const (
	KindConfiguration Kind = "configuration" // serie, código de validación o llave ausentes
	KindData          Kind = "data"          // valores mal formados en el documento
	KindIntegrity     Kind = "integrity"     // cadena rota, ATCUD duplicado: bloquea el ámbito
	KindTransient     Kind = "transient"     // fallo de E/S reintentable por el llamador
)

// Code identificador legible por máquina de un error fiscal.
type Code string

const (
	CodeNoActiveSeries          Code = "NO_ACTIVE_SERIES"
	CodeSeriesNotCommunicated   Code = "SERIES_NOT_COMMUNICATED"
	CodeSeriesConflict          Code = "SERIES_CONFLICT"
	CodeSeriesInUse             Code = "SERIES_IN_USE"
	CodeValidationCodeImmutable Code = "VALIDATION_CODE_IMMUTABLE"
	CodeInvalidValidationCode   Code = "INVALID_VALIDATION_CODE"
	CodeKeyUnavailable          Code = "KEY_UNAVAILABLE"
	CodeKeyNotFound             Code = "KEY_NOT_FOUND"
	CodeKeyDecrypt              Code = "KEY_DECRYPT_ERROR"
	CodeKeyTimeout              Code = "KEY_TIMEOUT"
	CodeSequenceExtraction      Code = "SEQUENCE_EXTRACTION_ERROR"
	CodeInvalidATCUD            Code = "INVALID_ATCUD"
	CodeDuplicateATCUD          Code = "DUPLICATE_ATCUD"
	CodeSignatureTooShort       Code = "SIGNATURE_TOO_SHORT"
	CodeEmptyPayload            Code = "EMPTY_PAYLOAD"
	CodeUnknownTaxRate          Code = "UNKNOWN_TAX_RATE"
	CodeUnknownDocumentType     Code = "UNKNOWN_DOCUMENT_TYPE"
	CodeBrokenChain             Code = "BROKEN_CHAIN"
	CodeChainHalted             Code = "CHAIN_HALTED"
	CodeAlreadySubmitted        Code = "ALREADY_SUBMITTED"
	CodeInvalidDocument         Code = "INVALID_DOCUMENT"
	CodeSignatureVerification   Code = "SIGNATURE_VERIFICATION_FAILED"
)

// FiscalError error de dominio con código, categoría y contexto estructurado
// (campo, valor recibido, patrón esperado) para el log de auditoría.
type FiscalError struct {
	Code     Code
	Kind     Kind
	Message  string
	Field    string
	Value    string
	Expected string
	Err      error
}

func (e *FiscalError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Field != "" {
		fmt.Fprintf(&sb, " (campo %s", e.Field)
		if e.Value != "" {
			fmt.Fprintf(&sb, ", valor %q", e.Value)
		}
		if e.Expected != "" {
			fmt.Fprintf(&sb, ", esperado %s", e.Expected)
		}
		sb.WriteString(")")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *FiscalError) Unwrap() error { return e.Err }

// Is compara por código: errors.Is(err, domain.ErrNoActiveSeries) es cierto para
// cualquier FiscalError con el mismo código, tenga o no contexto.
func (e *FiscalError) Is(target error) bool {
	t, ok := target.(*FiscalError)
	return ok && t.Code == e.Code
}

// With devuelve una copia con contexto de campo.
func (e *FiscalError) With(field, value, expected string) *FiscalError {
	c := *e
	c.Field, c.Value, c.Expected = field, value, expected
	return &c
}

// Msg devuelve una copia con un mensaje específico para el operador.
func (e *FiscalError) Msg(format string, args ...any) *FiscalError {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

// Wrap devuelve una copia que envuelve la causa original.
func (e *FiscalError) Wrap(err error) *FiscalError {
	c := *e
	c.Err = err
	return &c
}

// Context devuelve los campos para logging estructurado.
func (e *FiscalError) Context() map[string]any {
	m := map[string]any{
		"code": string(e.Code),
		"kind": string(e.Kind),
	}
	if e.Field != "" {
		m["field"] = e.Field
	}
	if e.Value != "" {
		m["value"] = e.Value
	}
	if e.Expected != "" {
		m["expected"] = e.Expected
	}
	return m
}

func newFiscal(code Code, kind Kind, msg string) *FiscalError {
	return &FiscalError{Code: code, Kind: kind, Message: msg}
}

// Errores fiscales. Usar With/Msg/Wrap para añadir contexto sin perder el código.
var (
	ErrNoActiveSeries          = newFiscal(CodeNoActiveSeries, KindConfiguration, "no existe serie activa comunicada a la AT")
	ErrSeriesNotCommunicated   = newFiscal(CodeSeriesNotCommunicated, KindConfiguration, "la serie no tiene código de validación AT")
	ErrSeriesConflict          = newFiscal(CodeSeriesConflict, KindConfiguration, "ya existe una serie activa para la empresa, tipo y fecha de inicio")
	ErrSeriesInUse             = newFiscal(CodeSeriesInUse, KindConfiguration, "la serie tiene documentos asociados")
	ErrValidationCodeImmutable = newFiscal(CodeValidationCodeImmutable, KindIntegrity, "el código de validación ya fue asignado")
	ErrInvalidValidationCode   = newFiscal(CodeInvalidValidationCode, KindData, "código de validación inválido")
	ErrKeyUnavailable          = newFiscal(CodeKeyUnavailable, KindConfiguration, "llave privada no disponible")
	ErrKeyNotFound             = newFiscal(CodeKeyNotFound, KindConfiguration, "llave privada no encontrada")
	ErrKeyDecrypt              = newFiscal(CodeKeyDecrypt, KindConfiguration, "no se pudo descifrar la llave privada")
	ErrKeyTimeout              = newFiscal(CodeKeyTimeout, KindTransient, "tiempo de lectura de la llave agotado")
	ErrSequenceExtraction      = newFiscal(CodeSequenceExtraction, KindData, "no se pudo extraer el número secuencial del documento")
	ErrInvalidATCUD            = newFiscal(CodeInvalidATCUD, KindData, "ATCUD con formato inválido")
	ErrDuplicateATCUD          = newFiscal(CodeDuplicateATCUD, KindIntegrity, "ATCUD ya asignado a otro documento")
	ErrSignatureTooShort       = newFiscal(CodeSignatureTooShort, KindData, "firma demasiado corta para extraer caracteres de impresión")
	ErrEmptyPayload            = newFiscal(CodeEmptyPayload, KindData, "payload QR vacío")
	ErrUnknownTaxRate          = newFiscal(CodeUnknownTaxRate, KindConfiguration, "tasa de IVA sin escalón configurado")
	ErrUnknownDocumentType     = newFiscal(CodeUnknownDocumentType, KindConfiguration, "tipo de documento sin código AT")
	ErrBrokenChain             = newFiscal(CodeBrokenChain, KindIntegrity, "cadena de hash rota")
	ErrChainHalted             = newFiscal(CodeChainHalted, KindIntegrity, "ámbito bloqueado hasta resolución manual")
	ErrAlreadySubmitted        = newFiscal(CodeAlreadySubmitted, KindData, "el documento ya fue emitido")
	ErrInvalidDocument         = newFiscal(CodeInvalidDocument, KindData, "documento incompleto para firma")
	ErrSignatureVerification   = newFiscal(CodeSignatureVerification, KindIntegrity, "la firma no verifica con la llave pública")
)

// IsFatalForScope indica si el error debe bloquear la extensión de la cadena del ámbito.
func IsFatalForScope(err error) bool {
	var fe *FiscalError
	if !errors.As(err, &fe) {
		return false
	}
	switch fe.Code {
	case CodeBrokenChain, CodeDuplicateATCUD, CodeSignatureVerification:
		return true
	}
	return false
}
