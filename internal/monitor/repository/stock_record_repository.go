package repository

import (
	"context"
	"errors"

	"whmcs-stock-monitor/internal/entity"

	"gorm.io/gorm"
)

// StockRecordRepository defines the interface for stock record data
// operations. Records are append-only.
type StockRecordRepository interface {
	Create(ctx context.Context, record *entity.StockRecord) error
	FindLatestByMonitor(ctx context.Context, monitorConfigID uint) (*entity.StockRecord, error)
	FindByMonitor(ctx context.Context, monitorConfigID uint, limit int) ([]entity.StockRecord, error)
}

// NewStockRecordRepository creates a new GORM-based stock record repository.
func NewStockRecordRepository(db *gorm.DB) StockRecordRepository {
	return &stockRecordRepository{db: db}
}

type stockRecordRepository struct {
	db *gorm.DB
}

func (r *stockRecordRepository) Create(ctx context.Context, record *entity.StockRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindLatestByMonitor returns the newest record for a monitor, or nil when
// the monitor has never been polled successfully.
func (r *stockRecordRepository) FindLatestByMonitor(ctx context.Context, monitorConfigID uint) (*entity.StockRecord, error) {
	var record entity.StockRecord
	err := r.db.WithContext(ctx).
		Where("monitor_config_id = ?", monitorConfigID).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *stockRecordRepository) FindByMonitor(ctx context.Context, monitorConfigID uint, limit int) ([]entity.StockRecord, error) {
	var records []entity.StockRecord
	err := r.db.WithContext(ctx).
		Where("monitor_config_id = ?", monitorConfigID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
