package dto

// CreateCustomerRequest body para POST /api/customers.
type CreateCustomerRequest struct {
	Name    string `json:"name"`
	TaxID   string `json:"tax_id"`
	Country string `json:"country,omitempty"` // ISO 3166-1 alfa-2; vacío = PT
	Email   string `json:"email,omitempty"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	TaxID     string `json:"tax_id"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
}
