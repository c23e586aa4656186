package dto

// ErrorResponse cuerpo de error HTTP. Los errores fiscales incluyen el contexto
// estructurado (campo, valor recibido, esperado).
type ErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
	Value    string `json:"value,omitempty"`
	Expected string `json:"expected,omitempty"`
}
