package repository

import (
	"context"
	"errors"
	"time"

	"whmcs-stock-monitor/internal/entity"

	"gorm.io/gorm"
)

// MonitorConfigRepository defines the interface for monitor configuration
// data operations.
type MonitorConfigRepository interface {
	Create(ctx context.Context, monitor *entity.MonitorConfig) error
	FindByID(ctx context.Context, id uint) (*entity.MonitorConfig, error)
	FindByWebsiteAndProduct(ctx context.Context, websiteID uint, productID int) (*entity.MonitorConfig, error)
	FindAll(ctx context.Context) ([]entity.MonitorConfig, error)
	FindActive(ctx context.Context) ([]entity.MonitorConfig, error)
	Update(ctx context.Context, monitor *entity.MonitorConfig) error
	Delete(ctx context.Context, id uint) error
	UpdateChecked(ctx context.Context, id uint, checkedAt time.Time, productName *string) error
}

// NewMonitorConfigRepository creates a new GORM-based monitor configuration
// repository.
func NewMonitorConfigRepository(db *gorm.DB) MonitorConfigRepository {
	return &monitorConfigRepository{db: db}
}

type monitorConfigRepository struct {
	db *gorm.DB
}

func (r *monitorConfigRepository) Create(ctx context.Context, monitor *entity.MonitorConfig) error {
	return r.db.WithContext(ctx).Create(monitor).Error
}

func (r *monitorConfigRepository) FindByID(ctx context.Context, id uint) (*entity.MonitorConfig, error) {
	var monitor entity.MonitorConfig
	if err := r.db.WithContext(ctx).Preload("Website").First(&monitor, id).Error; err != nil {
		return nil, err
	}
	return &monitor, nil
}

func (r *monitorConfigRepository) FindByWebsiteAndProduct(ctx context.Context, websiteID uint, productID int) (*entity.MonitorConfig, error) {
	var monitor entity.MonitorConfig
	err := r.db.WithContext(ctx).
		Where("website_id = ? AND product_id = ?", websiteID, productID).
		First(&monitor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &monitor, nil
}

func (r *monitorConfigRepository) FindAll(ctx context.Context) ([]entity.MonitorConfig, error) {
	var monitors []entity.MonitorConfig
	if err := r.db.WithContext(ctx).Find(&monitors).Error; err != nil {
		return nil, err
	}
	return monitors, nil
}

// FindActive returns all active monitors with their website preloaded, so
// the engine can build a client without further queries.
func (r *monitorConfigRepository) FindActive(ctx context.Context) ([]entity.MonitorConfig, error) {
	var monitors []entity.MonitorConfig
	err := r.db.WithContext(ctx).
		Preload("Website").
		Where("is_active = ?", true).
		Find(&monitors).Error
	if err != nil {
		return nil, err
	}
	return monitors, nil
}

func (r *monitorConfigRepository) Update(ctx context.Context, monitor *entity.MonitorConfig) error {
	return r.db.WithContext(ctx).Save(monitor).Error
}

func (r *monitorConfigRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.MonitorConfig{}, id).Error
}

// UpdateChecked stamps the last check time and backfills the product name
// when one was learned from the remote API.
func (r *monitorConfigRepository) UpdateChecked(ctx context.Context, id uint, checkedAt time.Time, productName *string) error {
	updates := map[string]interface{}{"last_checked_at": checkedAt}
	if productName != nil {
		updates["product_name"] = *productName
	}
	return r.db.WithContext(ctx).
		Model(&entity.MonitorConfig{}).
		Where("id = ?", id).
		Updates(updates).Error
}
