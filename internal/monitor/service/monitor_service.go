package service

import (
	"context"
	"fmt"

	"whmcs-stock-monitor/internal/entity"
	"whmcs-stock-monitor/internal/monitor/dto"
	"whmcs-stock-monitor/internal/monitor/repository"
	"whmcs-stock-monitor/pkg/logger"
)

const defaultHistoryLimit = 100

// MonitorService defines the interface for monitor configuration
// management and status queries.
type MonitorService interface {
	CreateMonitor(ctx context.Context, req *dto.CreateMonitorRequest) (*dto.MonitorResponse, error)
	GetMonitorByID(ctx context.Context, id uint) (*dto.MonitorResponse, error)
	GetAllMonitors(ctx context.Context) ([]dto.MonitorResponse, error)
	UpdateMonitor(ctx context.Context, id uint, req *dto.UpdateMonitorRequest) (*dto.MonitorResponse, error)
	DeleteMonitor(ctx context.Context, id uint) error
	GetStatusSummary(ctx context.Context, id uint) (*dto.MonitorStatusResponse, error)
	GetStockHistory(ctx context.Context, id uint, limit int) ([]entity.StockRecord, error)
	GetMonitorHistory(ctx context.Context, id uint, limit int) ([]entity.MonitorHistory, error)
	GetHistoryByEventType(ctx context.Context, eventType string, limit int) ([]entity.MonitorHistory, error)
}

// NewMonitorService creates a new monitor service.
func NewMonitorService(
	monitorRepo repository.MonitorConfigRepository,
	websiteRepo repository.WebsiteRepository,
	stockRepo repository.StockRecordRepository,
	historyRepo repository.MonitorHistoryRepository,
	log *logger.Logger,
) MonitorService {
	return &monitorService{
		monitorRepo: monitorRepo,
		websiteRepo: websiteRepo,
		stockRepo:   stockRepo,
		historyRepo: historyRepo,
		logger:      log,
	}
}

type monitorService struct {
	monitorRepo repository.MonitorConfigRepository
	websiteRepo repository.WebsiteRepository
	stockRepo   repository.StockRecordRepository
	historyRepo repository.MonitorHistoryRepository
	logger      *logger.Logger
}

// validateThresholds rejects a pair with the high threshold below the low
// one; such a pair can never produce a sane verdict. Equal thresholds are
// allowed, with the low check taking precedence.
func validateThresholds(low, high *int) error {
	if low != nil && high != nil && *high < *low {
		return fmt.Errorf("threshold_high (%d) must not be less than threshold_low (%d)", *high, *low)
	}
	return nil
}

func (s *monitorService) CreateMonitor(ctx context.Context, req *dto.CreateMonitorRequest) (*dto.MonitorResponse, error) {
	if req.WebsiteID == 0 || req.ProductID == 0 {
		return nil, fmt.Errorf("website_id and product_id are required")
	}
	if err := validateThresholds(req.ThresholdLow, req.ThresholdHigh); err != nil {
		return nil, err
	}

	if _, err := s.websiteRepo.FindByID(ctx, req.WebsiteID); err != nil {
		return nil, fmt.Errorf("website %d does not exist: %w", req.WebsiteID, err)
	}

	existing, err := s.monitorRepo.FindByWebsiteAndProduct(ctx, req.WebsiteID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("monitor for product %d on website %d already exists", req.ProductID, req.WebsiteID)
	}

	monitor := &entity.MonitorConfig{
		WebsiteID:         req.WebsiteID,
		ProductID:         req.ProductID,
		ProductName:       req.ProductName,
		ThresholdLow:      req.ThresholdLow,
		ThresholdHigh:     req.ThresholdHigh,
		NotifyOnRestock:   true,
		NotifyOnPurchase:  true,
		NotifyOnThreshold: true,
		PurchaseLink:      req.PurchaseLink,
		IsActive:          true,
	}
	if req.NotifyOnRestock != nil {
		monitor.NotifyOnRestock = *req.NotifyOnRestock
	}
	if req.NotifyOnPurchase != nil {
		monitor.NotifyOnPurchase = *req.NotifyOnPurchase
	}
	if req.NotifyOnThreshold != nil {
		monitor.NotifyOnThreshold = *req.NotifyOnThreshold
	}
	if req.IsActive != nil {
		monitor.IsActive = *req.IsActive
	}

	if err := s.monitorRepo.Create(ctx, monitor); err != nil {
		return nil, err
	}

	s.logger.Info("Monitor created",
		logger.IntField("monitor_id", int(monitor.ID)),
		logger.IntField("product_id", monitor.ProductID))
	return dto.NewMonitorResponse(monitor), nil
}

func (s *monitorService) GetMonitorByID(ctx context.Context, id uint) (*dto.MonitorResponse, error) {
	monitor, err := s.monitorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewMonitorResponse(monitor), nil
}

func (s *monitorService) GetAllMonitors(ctx context.Context) ([]dto.MonitorResponse, error) {
	monitors, err := s.monitorRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.MonitorResponse, 0, len(monitors))
	for i := range monitors {
		responses = append(responses, *dto.NewMonitorResponse(&monitors[i]))
	}
	return responses, nil
}

func (s *monitorService) UpdateMonitor(ctx context.Context, id uint, req *dto.UpdateMonitorRequest) (*dto.MonitorResponse, error) {
	monitor, err := s.monitorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	low := monitor.ThresholdLow
	high := monitor.ThresholdHigh
	if req.ThresholdLow != nil {
		low = req.ThresholdLow
	}
	if req.ThresholdHigh != nil {
		high = req.ThresholdHigh
	}
	if err := validateThresholds(low, high); err != nil {
		return nil, err
	}

	monitor.ThresholdLow = low
	monitor.ThresholdHigh = high
	if req.ProductName != nil {
		monitor.ProductName = req.ProductName
	}
	if req.NotifyOnRestock != nil {
		monitor.NotifyOnRestock = *req.NotifyOnRestock
	}
	if req.NotifyOnPurchase != nil {
		monitor.NotifyOnPurchase = *req.NotifyOnPurchase
	}
	if req.NotifyOnThreshold != nil {
		monitor.NotifyOnThreshold = *req.NotifyOnThreshold
	}
	if req.PurchaseLink != nil {
		monitor.PurchaseLink = req.PurchaseLink
	}
	if req.IsActive != nil {
		monitor.IsActive = *req.IsActive
	}

	if err := s.monitorRepo.Update(ctx, monitor); err != nil {
		return nil, err
	}
	return dto.NewMonitorResponse(monitor), nil
}

func (s *monitorService) DeleteMonitor(ctx context.Context, id uint) error {
	return s.monitorRepo.Delete(ctx, id)
}

// GetStatusSummary combines the monitor row, its latest stock record and
// recent history into one status view.
func (s *monitorService) GetStatusSummary(ctx context.Context, id uint) (*dto.MonitorStatusResponse, error) {
	monitor, err := s.monitorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	status := &dto.MonitorStatusResponse{
		MonitorID:     monitor.ID,
		WebsiteID:     monitor.WebsiteID,
		ProductID:     monitor.ProductID,
		ProductName:   monitor.ProductName,
		IsActive:      monitor.IsActive,
		LastCheckedAt: monitor.LastCheckedAt,
	}

	latest, err := s.stockRepo.FindLatestByMonitor(ctx, id)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		status.CurrentQuantity = &latest.Quantity
		status.LastChangeType = &latest.ChangeType
		status.ThresholdBreached = latest.ThresholdBreached
	}

	recent, err := s.historyRepo.FindByMonitor(ctx, id, 10)
	if err != nil {
		return nil, err
	}
	status.RecentEvents = len(recent)

	return status, nil
}

func (s *monitorService) GetStockHistory(ctx context.Context, id uint, limit int) ([]entity.StockRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.stockRepo.FindByMonitor(ctx, id, limit)
}

func (s *monitorService) GetMonitorHistory(ctx context.Context, id uint, limit int) ([]entity.MonitorHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.historyRepo.FindByMonitor(ctx, id, limit)
}

// GetHistoryByEventType lists recent transitions of one kind across all
// monitors.
func (s *monitorService) GetHistoryByEventType(ctx context.Context, eventType string, limit int) ([]entity.MonitorHistory, error) {
	if eventType == "" {
		return nil, fmt.Errorf("event_type is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.historyRepo.FindByEventType(ctx, eventType, limit)
}
