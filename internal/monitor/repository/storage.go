package repository

import (
	"context"
	"time"

	"whmcs-stock-monitor/internal/entity"
)

// Storage bundles the repositories into the engine's persistence port.
type Storage struct {
	monitors MonitorConfigRepository
	records  StockRecordRepository
	history  MonitorHistoryRepository
}

// NewStorage creates the engine-facing storage port.
func NewStorage(monitors MonitorConfigRepository, records StockRecordRepository, history MonitorHistoryRepository) *Storage {
	return &Storage{monitors: monitors, records: records, history: history}
}

func (s *Storage) GetActiveMonitors(ctx context.Context) ([]entity.MonitorConfig, error) {
	return s.monitors.FindActive(ctx)
}

func (s *Storage) GetLatestStockRecord(ctx context.Context, monitorConfigID uint) (*entity.StockRecord, error) {
	return s.records.FindLatestByMonitor(ctx, monitorConfigID)
}

func (s *Storage) SaveStockRecord(ctx context.Context, record *entity.StockRecord) error {
	return s.records.Create(ctx, record)
}

func (s *Storage) SaveMonitorHistory(ctx context.Context, history *entity.MonitorHistory) error {
	return s.history.Create(ctx, history)
}

func (s *Storage) UpdateMonitorChecked(ctx context.Context, monitorConfigID uint, checkedAt time.Time, productName *string) error {
	return s.monitors.UpdateChecked(ctx, monitorConfigID, checkedAt, productName)
}
