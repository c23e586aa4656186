package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/domain/entity"
)

var (
	scopeCompany      string
	scopeNamingSeries string
	scopeDocType      string
	releasedBy        string
)

var errChainInvalid = errors.New("cadena inválida")

func scopeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&scopeCompany, "company", "", "ID de la empresa")
	cmd.Flags().StringVar(&scopeNamingSeries, "naming-series", "", "Serie de numeración (ej: FT2025A)")
	cmd.Flags().StringVar(&scopeDocType, "doc-type", "", "Tipo de documento del ERP (ej: \"Sales Invoice\")")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("naming-series")
	_ = cmd.MarkFlagRequired("doc-type")
}

func flagScope() entity.ScopeKey {
	return entity.ScopeKey{CompanyID: scopeCompany, NamingSeries: scopeNamingSeries, DocType: scopeDocType}
}

var verifyChainCmd = &cobra.Command{
	Use:   "verify-chain",
	Short: "Recalcula hashes, enlaces, ATCUD y firmas de un ámbito",
	Long: `verify-chain imprime el informe en JSON y termina con código 1 si la cadena
está rota. Una rotura deja el ámbito bloqueado hasta "ptfiscal release".`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		e, err := loadEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.close()

		report, err := e.fiscal.Audit.VerifyScope(ctx, flagScope())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		if !report.Valid {
			return errChainInvalid
		}
		return nil
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Libera un ámbito bloqueado tras corregir la causa",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		e, err := loadEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.close()

		if err := e.fiscal.Audit.Release(ctx, flagScope(), releasedBy); err != nil {
			return err
		}
		cmd.Printf("Ámbito %s liberado por %s\n", flagScope(), releasedBy)
		return nil
	},
}

func init() {
	scopeFlags(verifyChainCmd)
	scopeFlags(releaseCmd)
	releaseCmd.Flags().StringVar(&releasedBy, "by", "", "Operador que libera el ámbito")
	_ = releaseCmd.MarkFlagRequired("by")
	rootCmd.AddCommand(verifyChainCmd, releaseCmd)
}
