package service

import (
	"context"
	"fmt"

	"whmcs-stock-monitor/internal/entity"
	"whmcs-stock-monitor/internal/monitor/dto"
	"whmcs-stock-monitor/internal/monitor/repository"
	"whmcs-stock-monitor/internal/whmcs"
	"whmcs-stock-monitor/pkg/logger"
)

// WebsiteService defines the interface for website management.
type WebsiteService interface {
	CreateWebsite(ctx context.Context, req *dto.CreateWebsiteRequest) (*dto.WebsiteResponse, error)
	GetWebsiteByID(ctx context.Context, id uint) (*dto.WebsiteResponse, error)
	GetAllWebsites(ctx context.Context, activeOnly bool) ([]dto.WebsiteResponse, error)
	UpdateWebsite(ctx context.Context, id uint, req *dto.UpdateWebsiteRequest) (*dto.WebsiteResponse, error)
	DeleteWebsite(ctx context.Context, id uint) error
	TestConnection(ctx context.Context, id uint) error
	ListProducts(ctx context.Context, id uint, filters whmcs.Filters) ([]whmcs.Product, error)
}

// NewWebsiteService creates a new website service.
func NewWebsiteService(websiteRepo repository.WebsiteRepository, clients *whmcs.Factory, log *logger.Logger) WebsiteService {
	return &websiteService{websiteRepo: websiteRepo, clients: clients, logger: log}
}

type websiteService struct {
	websiteRepo repository.WebsiteRepository
	clients     *whmcs.Factory
	logger      *logger.Logger
}

func (s *websiteService) CreateWebsite(ctx context.Context, req *dto.CreateWebsiteRequest) (*dto.WebsiteResponse, error) {
	if req.Name == "" || req.WebsiteURL == "" || req.APIIdentifier == "" || req.APISecret == "" {
		return nil, fmt.Errorf("name, website_url, api_identifier and api_secret are required")
	}

	existing, err := s.websiteRepo.FindByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("website with name %q already exists", req.Name)
	}

	website := &entity.Website{
		Name:          req.Name,
		WebsiteURL:    req.WebsiteURL,
		APIIdentifier: req.APIIdentifier,
		APISecret:     req.APISecret,
		Region:        req.Region,
		IsActive:      true,
	}
	if req.IsActive != nil {
		website.IsActive = *req.IsActive
	}

	if err := s.websiteRepo.Create(ctx, website); err != nil {
		return nil, err
	}

	s.logger.Info("Website created",
		logger.IntField("website_id", int(website.ID)),
		logger.StringField("name", website.Name))
	return dto.NewWebsiteResponse(website), nil
}

func (s *websiteService) GetWebsiteByID(ctx context.Context, id uint) (*dto.WebsiteResponse, error) {
	website, err := s.websiteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewWebsiteResponse(website), nil
}

func (s *websiteService) GetAllWebsites(ctx context.Context, activeOnly bool) ([]dto.WebsiteResponse, error) {
	websites, err := s.websiteRepo.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.WebsiteResponse, 0, len(websites))
	for i := range websites {
		responses = append(responses, *dto.NewWebsiteResponse(&websites[i]))
	}
	return responses, nil
}

func (s *websiteService) UpdateWebsite(ctx context.Context, id uint, req *dto.UpdateWebsiteRequest) (*dto.WebsiteResponse, error) {
	website, err := s.websiteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		website.Name = *req.Name
	}
	if req.WebsiteURL != nil {
		website.WebsiteURL = *req.WebsiteURL
	}
	if req.APIIdentifier != nil {
		website.APIIdentifier = *req.APIIdentifier
	}
	if req.APISecret != nil {
		website.APISecret = *req.APISecret
	}
	if req.Region != nil {
		website.Region = req.Region
	}
	if req.IsActive != nil {
		website.IsActive = *req.IsActive
	}

	if err := s.websiteRepo.Update(ctx, website); err != nil {
		return nil, err
	}

	// Credentials may have changed; the next cycle rebuilds the client.
	s.clients.Invalidate(website.ID)

	return dto.NewWebsiteResponse(website), nil
}

func (s *websiteService) DeleteWebsite(ctx context.Context, id uint) error {
	if err := s.websiteRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.clients.Invalidate(id)
	return nil
}

// TestConnection verifies connectivity and credentials for a website.
func (s *websiteService) TestConnection(ctx context.Context, id uint) error {
	website, err := s.websiteRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	client, err := s.clients.ClientFor(website)
	if err != nil {
		return err
	}
	return client.TestConnection(ctx)
}

// ListProducts returns the normalized product catalog of a website, served
// through the client's response cache.
func (s *websiteService) ListProducts(ctx context.Context, id uint, filters whmcs.Filters) ([]whmcs.Product, error) {
	website, err := s.websiteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	client, err := s.clients.ClientFor(website)
	if err != nil {
		return nil, err
	}
	return client.GetProducts(ctx, true, filters)
}
