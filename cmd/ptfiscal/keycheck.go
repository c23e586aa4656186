package main

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
	"github.com/sun2dayo/portugal-compliance-sub001/internal/infrastructure/signer"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/logger"
)

// probe cadena con el formato canónico de firma; no corresponde a ningún documento.
const probe = "2025-01-10;2025-01-10T10:00:00;PROBE/1;0.00;0"

var keycheckCmd = &cobra.Command{
	Use:   "keycheck",
	Short: "Carga la llave privada, firma una cadena de prueba y la verifica",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		e, err := loadEnv(ctx, false)
		if err != nil {
			return err
		}
		defer e.close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Llave: %s\n", e.fiscal.Custody.Path())

		s, err := e.fiscal.Signers.Signer(ctx)
		if err != nil {
			logger.Fiscal(e.log.Error(), err).Msg("keycheck: llave no disponible")
			return err
		}
		rsaSigner, ok := s.(*signer.RSASigner)
		if !ok {
			return fmt.Errorf("keycheck: firmador inesperado %T", s)
		}
		pub := rsaSigner.PublicKey()
		der, err := x509.MarshalPKIXPublicKey(pub)
		if err != nil {
			return fmt.Errorf("keycheck: serializar llave pública: %w", err)
		}
		sum := sha256.Sum256(der)
		fmt.Fprintf(out, "RSA %d bits, SHA-256 de la llave pública: %s\n", pub.N.BitLen(), hex.EncodeToString(sum[:]))

		sig, err := s.Sign([]byte(probe))
		if err != nil {
			return fmt.Errorf("keycheck: firmar: %w", err)
		}
		if err := s.Verify([]byte(probe), sig); err != nil {
			return fmt.Errorf("keycheck: la firma no verifica: %w", err)
		}
		chars, ok := fiscal.ExtractPrintCharacters(sig)
		if !ok {
			return fmt.Errorf("keycheck: firma de %d caracteres, demasiado corta", len(sig))
		}
		fmt.Fprintf(out, "Firma de prueba OK (%d caracteres, impresión %s)\n", len(sig), chars)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keycheckCmd)
}
