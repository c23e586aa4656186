package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/repository"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/at"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/logger"
)

// SignResult salidas de la firma de un documento.
type SignResult struct {
	PreviousHash string
	Signature    string
	ThisHash     string
	PrintChars   string
}

// DocumentSigner firma la cadena canónica del documento y deriva hash propio y
// caracteres de impresión.
type DocumentSigner struct {
	chain   *HashChain
	signer  at.Signer
	docRepo repository.FiscalDocumentRepository
	log     *logger.Logger
	now     func() time.Time
}

// NewDocumentSigner construye el firmador; chain y docRepo deben estar ligados a la misma transacción.
func NewDocumentSigner(chain *HashChain, signer at.Signer, docRepo repository.FiscalDocumentRepository, log *logger.Logger) *DocumentSigner {
	return &DocumentSigner{chain: chain, signer: signer, docRepo: docRepo, log: log, now: time.Now}
}

// CanonicalSigningString postingDate;emissionDateTime;documentID;grandTotal;previousHash.
func (s *DocumentSigner) CanonicalSigningString(in fiscal.SigningInput, previousHash string) string {
	return fiscal.CanonicalSigningString(in, previousHash)
}

// Sign firma la cadena canónica. Sin firmador devuelve ErrKeyUnavailable.
func (s *DocumentSigner) Sign(canonical string) (string, error) {
	if s.signer == nil {
		return "", domain.ErrKeyUnavailable
	}
	return s.signer.Sign([]byte(canonical))
}

// ExtractPrintCharacters caracteres 0, 10, 20 y 30 de la firma; "" y aviso si es corta.
func (s *DocumentSigner) ExtractPrintCharacters(signature string) string {
	chars, ok := fiscal.ExtractPrintCharacters(signature)
	if !ok {
		s.log.Warn().Int("signature_length", len(signature)).Int("min_length", fiscal.MinSignatureLength).
			Msg("firma demasiado corta para extraer caracteres de impresión")
	}
	return chars
}

// Process ejecuta la firma completa del documento:
//
//	hash anterior -> cadena canónica -> firma -> hash propio -> caracteres de impresión
//
// y persiste las cuatro salidas con UpdateFiscalFields. Cualquier error deja el documento
// sin campos de firma (la transacción del llamador se deshace).
func (s *DocumentSigner) Process(ctx context.Context, doc *entity.FiscalDocument) (*SignResult, error) {
	if err := fiscal.ValidateForSigning(doc); err != nil {
		return nil, err
	}
	in := signingInput(doc)

	prev, err := s.chain.PreviousHash(ctx, doc.Scope(), doc.ID, doc.PostingDate, doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	signature, err := s.Sign(s.CanonicalSigningString(in, prev))
	if err != nil {
		return nil, err
	}
	res := &SignResult{
		PreviousHash: prev,
		Signature:    signature,
		ThisHash:     s.chain.Digest(fiscal.ChainHashString(in)),
		PrintChars:   s.ExtractPrintCharacters(signature),
	}
	if res.PrintChars == "" {
		return nil, domain.ErrSignatureTooShort.With("signature", signature, fmt.Sprintf(">= %d caracteres", fiscal.MinSignatureLength))
	}

	signedAt := s.now()
	doc.PreviousHash = res.PreviousHash
	doc.Signature = res.Signature
	doc.ThisHash = res.ThisHash
	doc.PrintChars = res.PrintChars
	doc.SignedAt = &signedAt
	if err := s.docRepo.UpdateFiscalFields(ctx, doc); err != nil {
		return nil, fmt.Errorf("signer: persistir firma: %w", err)
	}
	return res, nil
}

func signingInput(doc *entity.FiscalDocument) fiscal.SigningInput {
	return fiscal.SigningInput{
		PostingDate: doc.PostingDate,
		EmissionAt:  doc.EmissionAt,
		DocumentID:  doc.ID,
		GrandTotal:  doc.GrandTotal,
	}
}
