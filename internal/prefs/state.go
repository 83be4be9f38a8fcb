package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"CycleSentinel/internal/model"
)

// LoadState reads risk preferences from a JSON file. Returns a zero value if the file doesn't exist.
func LoadState(filePath string) (*model.RiskParams, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.RiskParams{}, nil
		}
		return nil, err
	}
	var params model.RiskParams
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, err
	}
	return &params, nil
}

// SaveState writes risk preferences to a JSON file, creating its directory if needed.
func SaveState(filePath string, params *model.RiskParams) error {
	params.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
