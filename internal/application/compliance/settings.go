package compliance

import (
	"fmt"
	"strings"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
)

// Settings configuración fiscal del proceso. Se construye una vez al arrancar y se
// inyecta; para cambiarla se construye otra y se reinyecta.
type Settings struct {
	CertificateNumber string
	DocTypes          *fiscal.DocumentTypeMap
	Brackets          *fiscal.BracketTable
}

// SettingsInput valores crudos de configuración (AT_*).
type SettingsInput struct {
	CertificateNumber string
	TaxRegion         string
	TaxBrackets       string // override opcional "ISE:0,RED:6,INT:13,NOR:23"
	DocTypeMapVersion string
}

// NewSettings valida la configuración. Falla si la región, la tabla de escalones o la
// versión de la tabla de tipos no existen.
func NewSettings(in SettingsInput) (*Settings, error) {
	if strings.TrimSpace(in.CertificateNumber) == "" {
		return nil, fmt.Errorf("compliance: número de certificado AT vacío")
	}
	docTypes, err := fiscal.LoadDocumentTypeMap(in.DocTypeMapVersion)
	if err != nil {
		return nil, err
	}
	var brackets *fiscal.BracketTable
	if strings.TrimSpace(in.TaxBrackets) != "" {
		brackets, err = fiscal.ParseBrackets(in.TaxRegion, in.TaxBrackets)
	} else {
		brackets, err = fiscal.DefaultBrackets(in.TaxRegion)
	}
	if err != nil {
		return nil, err
	}
	return &Settings{
		CertificateNumber: strings.TrimSpace(in.CertificateNumber),
		DocTypes:          docTypes,
		Brackets:          brackets,
	}, nil
}
