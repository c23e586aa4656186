package fiscal

import (
	"time"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
)

// LinkCheck eslabón emitido con los datos necesarios para auditarlo.
type LinkCheck struct {
	Input        SigningInput
	CreatedAt    time.Time
	PreviousHash string
	ThisHash     string
}

// VerifyChain audita la cadena de un ámbito. links debe venir en orden de firma.
// Para cada eslabón recalcula el hash propio y vuelve a resolver el hash anterior con
// la misma regla usada al firmar (último emitido antes, con fecha <= la del documento,
// más el desempate por misma fecha). Devuelve ErrBrokenChain con el documento afectado.
func VerifyChain(links []LinkCheck) error {
	for i, l := range links {
		if got := ThisHash(l.Input); got != l.ThisHash {
			return domain.ErrBrokenChain.
				Msg("hash propio del documento %s no coincide con sus datos", l.Input.DocumentID).
				With("this_hash", l.ThisHash, got)
		}
		want, _ := SelectPrevious(latestBefore(links[:i], l.Input.PostingDate), l.Input.PostingDate, l.CreatedAt)
		if l.PreviousHash != want {
			return domain.ErrBrokenChain.
				Msg("el documento %s no enlaza con su predecesor", l.Input.DocumentID).
				With("previous_hash", l.PreviousHash, want)
		}
	}
	return nil
}

// latestBefore replica la consulta del predecesor sobre los eslabones ya firmados.
func latestBefore(signed []LinkCheck, postingDate time.Time) *entity.ChainLink {
	var best *LinkCheck
	for i := range signed {
		c := &signed[i]
		if dayAfter(c.Input.PostingDate, postingDate) {
			continue
		}
		if best == nil || chainLess(best, c) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	return &entity.ChainLink{
		DocumentID:   best.Input.DocumentID,
		PostingDate:  best.Input.PostingDate,
		CreatedAt:    best.CreatedAt,
		PreviousHash: best.PreviousHash,
		ThisHash:     best.ThisHash,
	}
}

// chainLess indica si a va antes que b en orden (posting_date, created_at, id).
func chainLess(a, b *LinkCheck) bool {
	if !sameDay(a.Input.PostingDate, b.Input.PostingDate) {
		return a.Input.PostingDate.Before(b.Input.PostingDate)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Input.DocumentID < b.Input.DocumentID
}

func dayAfter(a, b time.Time) bool {
	return !sameDay(a, b) && a.After(b)
}
