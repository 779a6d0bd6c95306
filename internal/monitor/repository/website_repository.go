package repository

import (
	"context"
	"errors"

	"whmcs-stock-monitor/internal/entity"

	"gorm.io/gorm"
)

// WebsiteRepository defines the interface for website data operations.
type WebsiteRepository interface {
	Create(ctx context.Context, website *entity.Website) error
	FindByID(ctx context.Context, id uint) (*entity.Website, error)
	FindByName(ctx context.Context, name string) (*entity.Website, error)
	FindAll(ctx context.Context, activeOnly bool) ([]entity.Website, error)
	Update(ctx context.Context, website *entity.Website) error
	Delete(ctx context.Context, id uint) error
}

// NewWebsiteRepository creates a new GORM-based website repository.
func NewWebsiteRepository(db *gorm.DB) WebsiteRepository {
	return &websiteRepository{db: db}
}

type websiteRepository struct {
	db *gorm.DB
}

func (r *websiteRepository) Create(ctx context.Context, website *entity.Website) error {
	return r.db.WithContext(ctx).Create(website).Error
}

func (r *websiteRepository) FindByID(ctx context.Context, id uint) (*entity.Website, error) {
	var website entity.Website
	if err := r.db.WithContext(ctx).First(&website, id).Error; err != nil {
		return nil, err
	}
	return &website, nil
}

func (r *websiteRepository) FindByName(ctx context.Context, name string) (*entity.Website, error) {
	var website entity.Website
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&website).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &website, nil
}

func (r *websiteRepository) FindAll(ctx context.Context, activeOnly bool) ([]entity.Website, error) {
	var websites []entity.Website
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&websites).Error; err != nil {
		return nil, err
	}
	return websites, nil
}

func (r *websiteRepository) Update(ctx context.Context, website *entity.Website) error {
	return r.db.WithContext(ctx).Save(website).Error
}

func (r *websiteRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Website{}, id).Error
}
