package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/candemir/studydeck/internal/config"
	"github.com/candemir/studydeck/internal/export"
	"github.com/candemir/studydeck/internal/history"
	"github.com/candemir/studydeck/internal/storage"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the completion history to a file",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg := config.Load(viper.GetViper())

		dbPath := cfg.DBPath
		if dbPath == "" {
			var err error
			dbPath, err = storage.DefaultDBPath()
			if err != nil {
				return fmt.Errorf("resolve db path: %w", err)
			}
		}

		db, err := storage.New(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		entries, err := db.LoadHistory()
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}

		ledger := history.NewLedger(nil, nil)
		ledger.Load(entries)
		sorted := ledger.Query(history.Filter{Descending: true})

		switch exportFormat {
		case "csv":
			err = export.ToCSV(sorted, exportOut)
		case "json":
			err = export.ToJSON(sorted, exportOut)
		default:
			return fmt.Errorf("unknown format %q (want csv or json)", exportFormat)
		}
		if err != nil {
			return err
		}

		fmt.Printf("exported %d entries to %s\n", len(sorted), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv | json")
	exportCmd.Flags().StringVar(&exportOut, "out", "history.csv", "output file path")
}
