// ptfiscal herramientas de operación de la cadena fiscal: diagnóstico de la llave,
// verificación y liberación de ámbitos, y exportación de códigos QR.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
