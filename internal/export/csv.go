// Package export writes the completion history to CSV or JSON files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/candemir/studydeck/internal/history"
)

func ToCSV(entries []history.Entry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Task ID", "Title", "Tags", "Priority", "Estimated (min)", "Completed At", "Day"}); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			e.TaskID,
			e.Title,
			strings.Join(e.Tags, ";"),
			string(e.Priority),
			fmt.Sprintf("%d", e.EstimatedMinutes),
			e.CompletedAt.Local().Format(time.RFC3339),
			e.Day,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
