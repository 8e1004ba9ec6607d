package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"pv-battery-sizing/internal/model"
)

// TechDBClient fetches reference techno-economic parameters from an external
// technology database, keyed by a dated release version.
type TechDBClient struct {
	BaseURL string
	Client  *http.Client
}

// NewTechDBClient creates a new technology database client.
// If baseURL is empty, defaults to the public SWEET-CROSS mirror.
func NewTechDBClient(baseURL string) *TechDBClient {
	if baseURL == "" {
		baseURL = "https://sweet-cross.ch"
	}
	return &TechDBClient{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TechDBError represents an error response from the technology database.
type TechDBError struct {
	StatusCode int
	Message    string
}

func (e *TechDBError) Error() string {
	return fmt.Sprintf("techdb: status %d: %s", e.StatusCode, e.Message)
}

// ReferenceParams is the payload of one database release: average cost and
// technology figures for PV and battery assets.
type ReferenceParams struct {
	Version string `json:"version"`

	PV struct {
		UnitCost      float64 `json:"unit_cost"`
		LifetimeYears float64 `json:"lifetime_years"`
	} `json:"pv"`

	Battery struct {
		EnergyUnitCost      float64 `json:"energy_unit_cost"`
		PowerUnitCost       float64 `json:"power_unit_cost"`
		LifetimeYears       float64 `json:"lifetime_years"`
		ChargeEfficiency    float64 `json:"charge_efficiency"`
		DischargeEfficiency float64 `json:"discharge_efficiency"`
		SelfDischargeHourly float64 `json:"self_discharge_hourly"`
	} `json:"battery"`
}

// FetchParameters retrieves one release of the reference parameter set.
// Responses are cached in-memory: the database publishes dated snapshots, so a
// version's content never changes.
func (c *TechDBClient) FetchParameters(ctx context.Context, version string) (*ReferenceParams, error) {
	if version == "" {
		return nil, fmt.Errorf("version is required")
	}

	if cached, found := paramsCache.get(version); found {
		log.Printf("[TechDB] Cache hit for version %s", version)
		return cached, nil
	}

	url := fmt.Sprintf("%s/data/energy-tech-parameters/%s/", c.BaseURL, version)
	log.Printf("[TechDB] Request: GET %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("techdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &TechDBError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var params ReferenceParams
	if err := json.NewDecoder(resp.Body).Decode(&params); err != nil {
		return nil, fmt.Errorf("decode techdb response: %w", err)
	}
	if params.Version == "" {
		params.Version = version
	}

	paramsCache.set(version, &params)
	return &params, nil
}

// ApplyTo overlays the reference figures onto a parameter set, leaving the
// site-specific fields (caps, SOC window, rate) untouched.
func (r *ReferenceParams) ApplyTo(p model.TechnoEconomicParams) model.TechnoEconomicParams {
	p.PVUnitCost = r.PV.UnitCost
	p.PVLifetimeYears = r.PV.LifetimeYears
	p.BatteryEnergyUnitCost = r.Battery.EnergyUnitCost
	p.BatteryPowerUnitCost = r.Battery.PowerUnitCost
	p.BatteryLifetimeYears = r.Battery.LifetimeYears
	p.ChargeEfficiency = r.Battery.ChargeEfficiency
	p.DischargeEfficiency = r.Battery.DischargeEfficiency
	p.SelfDischargeHourly = r.Battery.SelfDischargeHourly
	return p
}
