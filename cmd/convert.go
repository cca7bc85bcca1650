package cmd

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mspro-labs/grid-scout/internal/config"
	"mspro-labs/grid-scout/internal/export"
	"mspro-labs/grid-scout/internal/sheet"
)

var (
	convertSheet string
	convertOut   string
)

var convertCmd = &cobra.Command{
	Use:   "convert <xlsx>",
	Short: "Convert a worksheet to a JSON array of records",
	Long: `Reads one worksheet (Sheet1 unless --sheet says otherwise). The header row
names the keys of every record. Writes <OUTPUT_DIR>/<name>.json unless --out
is given.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runConvert(args[0])
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertSheet, "sheet", sheet.DefaultSheet, "worksheet to convert")
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "", "output file")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(path string) {
	out := convertOut
	if out == "" {
		appCfg, err := config.GetAppConfig()
		if err != nil {
			log.Fatalf("Config error: %v", err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out = filepath.Join(appCfg.OutputDir, name+".json")
	}

	rows, err := sheet.ConvertFile(path, convertSheet)
	if err != nil {
		log.Fatalf("Convert failed: %v", err)
	}
	if err := export.WriteJSON(out, rows, export.IndentSheets); err != nil {
		log.Fatalf("Failed to write %s: %v", out, err)
	}
	log.Printf("SUCCESS: wrote %d records.", len(rows))
}
