// Package store persists sizing runs to a local SQLite file so the API can
// serve a run's schedule after the solve has finished.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"pv-battery-sizing/internal/model"
)

var ErrNotFound = errors.New("run not found")

type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&StoredRun{}, &StoredHourRow{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// StoredRun is the persisted summary of one sizing run.
type StoredRun struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time

	PVCapacity      float64
	BatteryCapacity float64

	TotalAnnualizedCost float64
	PVInvestment        float64
	BatteryInvestment   float64
	GridImportCost      float64
	ExportRevenue       float64

	Suboptimal bool
	Gap        float64
}

// StoredHourRow is one persisted hour of a run's dispatch schedule.
type StoredHourRow struct {
	RunID string `gorm:"primaryKey;index"`
	Hour  int    `gorm:"primaryKey"`

	Load         float64
	PVGeneration float64
	SOC          float64
	Charge       float64
	Discharge    float64
	GridImport   float64
	GridExport   float64
	Action       string
}

// AddRun persists a result and returns its generated run ID.
func (s *Store) AddRun(res *model.SizingResult) (string, error) {
	id := uuid.NewString()
	run := StoredRun{
		ID:                  id,
		CreatedAt:           time.Now().UTC(),
		PVCapacity:          res.PVCapacity,
		BatteryCapacity:     res.BatteryCapacity,
		TotalAnnualizedCost: res.TotalAnnualizedCost,
		PVInvestment:        res.Breakdown.PVInvestment,
		BatteryInvestment:   res.Breakdown.BatteryInvestment,
		GridImportCost:      res.Breakdown.GridImportCost,
		ExportRevenue:       res.Breakdown.ExportRevenue,
		Suboptimal:          res.Suboptimal,
		Gap:                 res.Gap,
	}

	rows := make([]StoredHourRow, len(res.Schedule))
	for i, r := range res.Schedule {
		rows[i] = StoredHourRow{
			RunID:        id,
			Hour:         r.Hour,
			Load:         r.Load,
			PVGeneration: r.PVGeneration,
			SOC:          r.SOC,
			Charge:       r.Charge,
			Discharge:    r.Discharge,
			GridImport:   r.GridImport,
			GridExport:   r.GridExport,
			Action:       string(r.Action),
		}
	}

	return id, s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
}

func (s *Store) GetRun(id string) (*StoredRun, error) {
	var run StoredRun
	result := s.db.First(&run, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &run, nil
}

func (s *Store) GetSchedule(id string) ([]StoredHourRow, error) {
	if _, err := s.GetRun(id); err != nil {
		return nil, err
	}
	var rows []StoredHourRow
	result := s.db.Where("run_id = ?", id).Order("hour asc").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]StoredRun, error) {
	var runs []StoredRun
	result := s.db.Order("created_at desc").Limit(limit).Find(&runs)
	if result.Error != nil {
		return nil, result.Error
	}
	return runs, nil
}
