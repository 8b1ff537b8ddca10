package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/candemir/studydeck/internal/history"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	TaskID           string   `json:"task_id"`
	Title            string   `json:"title"`
	Tags             []string `json:"tags,omitempty"`
	Priority         string   `json:"priority"`
	EstimatedMinutes int      `json:"estimated_minutes"`
	CompletedAt      string   `json:"completed_at"`
	Day              string   `json:"day"`
}

func ToJSON(entries []history.Entry, path string) error {
	out := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
	}

	for _, e := range entries {
		out.Entries = append(out.Entries, jsonEntry{
			TaskID:           e.TaskID,
			Title:            e.Title,
			Tags:             e.Tags,
			Priority:         string(e.Priority),
			EstimatedMinutes: e.EstimatedMinutes,
			CompletedAt:      e.CompletedAt.Local().Format(time.RFC3339),
			Day:              e.Day,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
