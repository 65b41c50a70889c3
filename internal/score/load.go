package score

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads a score graph from a JSON file. The file is pupitre's own
// serialization of an already-parsed score, produced by Save or by an
// external converter; pupitre never parses engraving formats itself.
func Load(path string) (*Score, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read score: %w", err)
	}
	var sc Score
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to decode score: %w", err)
	}
	for i := range sc.Measures {
		sc.Measures[i].Index = i
		if sc.Measures[i].Number == 0 {
			sc.Measures[i].Number = i + 1
		}
		if sc.Measures[i].Duration <= 0 {
			sc.Measures[i].Duration = 1
		}
	}
	if sc.ID == "" {
		sc.ID = path
	}
	return &sc, nil
}

// Save writes the score graph as indented JSON.
func Save(path string, sc *Score) error {
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode score: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write score: %w", err)
	}
	return nil
}
