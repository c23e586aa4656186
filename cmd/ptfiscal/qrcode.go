package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/fiscal"
)

var (
	qrPayload  string
	qrDocument string
	qrCompany  string
	qrOut      string
	qrSize     int
)

var qrcodeCmd = &cobra.Command{
	Use:   "qrcode",
	Short: "Renderiza a PNG el QR de un documento emitido o de un payload dado",
	Long: `Con --document lee el payload guardado del documento; con --payload comprueba
que esté bien formado (KEY:VALUE separados por "*") y lo renderiza tal cual.

Ejemplos:
  ptfiscal qrcode --company <uuid> --document FT2025A/1 --out ft1.png
  ptfiscal qrcode --payload "A:500000000*B:...*R:9999" --out qr.png`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if (qrPayload == "") == (qrDocument == "") {
			return fmt.Errorf("indicar exactamente uno de --payload o --document")
		}
		e, err := loadEnv(ctx, qrDocument != "")
		if err != nil {
			return err
		}
		defer e.close()

		var png []byte
		if qrDocument != "" {
			png, _, err = e.fiscal.Documents.QRCode(ctx, qrCompany, qrDocument, qrSize)
		} else {
			if _, err = fiscal.ParseQRPayload(qrPayload); err != nil {
				return err
			}
			png, err = e.fiscal.QR.RenderPNG(qrPayload, qrSize)
		}
		if err != nil {
			return err
		}
		if err := os.WriteFile(qrOut, png, 0o644); err != nil {
			return fmt.Errorf("escribir %s: %w", qrOut, err)
		}
		cmd.Printf("QR escrito en %s (%d bytes)\n", qrOut, len(png))
		return nil
	},
}

func init() {
	qrcodeCmd.Flags().StringVar(&qrPayload, "payload", "", "Payload QR completo")
	qrcodeCmd.Flags().StringVar(&qrDocument, "document", "", "ID del documento emitido")
	qrcodeCmd.Flags().StringVar(&qrCompany, "company", "", "ID de la empresa (con --document)")
	qrcodeCmd.Flags().StringVarP(&qrOut, "out", "o", "qrcode.png", "Archivo PNG de salida")
	qrcodeCmd.Flags().IntVar(&qrSize, "size", 0, "Lado en píxeles (0 = por defecto)")
	rootCmd.AddCommand(qrcodeCmd)
}
