package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sun2dayo/portugal-compliance-sub001/internal/bootstrap"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/config"
	"github.com/sun2dayo/portugal-compliance-sub001/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ptfiscal",
	Short: "Operación de la cadena de firma fiscal (ATCUD, hash, QR)",
	Long: `ptfiscal lee la misma configuración que la API (variables AT_*, DB_*, .env)
y opera sobre el mismo almacenamiento.

Ejemplos:
  # Comprobar que la llave configurada firma y verifica
  ptfiscal keycheck

  # Auditar la cadena de un ámbito
  ptfiscal verify-chain --company <uuid> --naming-series FT2025A --doc-type "Sales Invoice"`,
	SilenceUsage: true,
}

// env configuración, logger y dependencias fiscales para un subcomando.
type env struct {
	cfg    *config.Config
	log    *logger.Logger
	stores *bootstrap.Stores
	fiscal *bootstrap.Fiscal
	close  func()
}

func loadEnv(ctx context.Context, withStores bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	e := &env{cfg: cfg, log: log, stores: &bootstrap.Stores{}, close: func() {}}
	if withStores {
		st, closeFn, err := bootstrap.OpenStores(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		e.stores, e.close = st, closeFn
	}
	f, err := bootstrap.NewFiscal(cfg, e.stores, log)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("configuración fiscal: %w", err)
	}
	e.fiscal = f
	return e, nil
}
