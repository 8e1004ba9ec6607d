package data

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadReferenceParamsJSON reads a locally saved technology database release,
// e.g. one downloaded earlier with cmd/fetch-params. Offline fallback for the
// HTTP client.
func LoadReferenceParamsJSON(path string) (*ReferenceParams, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var params ReferenceParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if params.PV.LifetimeYears == 0 && params.Battery.LifetimeYears == 0 {
		return nil, fmt.Errorf("%s: not a reference parameter file", path)
	}
	return &params, nil
}
