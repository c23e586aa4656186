package compliance

import (
	"fmt"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
)

// PrintDocument datos que necesita la representación impresa de un documento emitido.
type PrintDocument struct {
	Company        *entity.Company
	Customer       *entity.Customer
	Document       *entity.FiscalDocument
	ATDocumentType string
	Brackets       *fiscal.BracketTable
	Totals         fiscal.BracketTotals
	QRPayload      string
	Footer         string
}

// CertificationFooter "<caracteres>-Processado por programa certificado n.º <R>/AT".
func CertificationFooter(printChars, certificateNumber string) string {
	return fmt.Sprintf("%s-Processado por programa certificado n.º %s/AT", printChars, certificateNumber)
}
