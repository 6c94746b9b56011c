package dashboard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/uzhanitsoft/qarzdorlik/internal/logger"
	"github.com/uzhanitsoft/qarzdorlik/internal/model"
)

// LoadState reads the dashboard document from filePath. A missing, unreadable
// or corrupt file yields an empty state; the failure is logged, not returned.
func LoadState(filePath string) *model.State {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error("error loading data from %s: %v", filePath, err)
		}
		return model.EmptyState()
	}

	var state model.State
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Error("error parsing data file %s, starting empty: %v", filePath, err)
		return model.EmptyState()
	}
	if state.Agents == nil {
		state.Agents = []model.Agent{}
	}
	if state.History == nil {
		state.History = []model.HistoryEntry{}
	}
	return &state
}

// SaveState replaces the document at filePath in one step: the JSON is
// written to a temporary file in the same directory, synced, then renamed
// over the old file.
func SaveState(filePath string, state *model.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp data file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp data file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp data file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp data file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("rename data file into place: %w", err)
	}

	success = true
	return nil
}
