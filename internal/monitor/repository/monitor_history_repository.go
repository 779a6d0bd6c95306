package repository

import (
	"context"

	"whmcs-stock-monitor/internal/entity"

	"gorm.io/gorm"
)

// MonitorHistoryRepository defines the interface for monitor history data
// operations.
type MonitorHistoryRepository interface {
	Create(ctx context.Context, history *entity.MonitorHistory) error
	FindByMonitor(ctx context.Context, monitorConfigID uint, limit int) ([]entity.MonitorHistory, error)
	FindByEventType(ctx context.Context, eventType string, limit int) ([]entity.MonitorHistory, error)
}

// NewMonitorHistoryRepository creates a new GORM-based monitor history
// repository.
func NewMonitorHistoryRepository(db *gorm.DB) MonitorHistoryRepository {
	return &monitorHistoryRepository{db: db}
}

type monitorHistoryRepository struct {
	db *gorm.DB
}

func (r *monitorHistoryRepository) Create(ctx context.Context, history *entity.MonitorHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *monitorHistoryRepository) FindByMonitor(ctx context.Context, monitorConfigID uint, limit int) ([]entity.MonitorHistory, error) {
	var history []entity.MonitorHistory
	err := r.db.WithContext(ctx).
		Where("monitor_config_id = ?", monitorConfigID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (r *monitorHistoryRepository) FindByEventType(ctx context.Context, eventType string, limit int) ([]entity.MonitorHistory, error) {
	var history []entity.MonitorHistory
	err := r.db.WithContext(ctx).
		Where("event_type = ?", eventType).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}
