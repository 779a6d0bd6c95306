package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"whmcs-stock-monitor/internal/entity"
	"whmcs-stock-monitor/internal/monitor/dto"
	"whmcs-stock-monitor/pkg/logger"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

type fakeMonitorRepo struct {
	byID      map[uint]*entity.MonitorConfig
	byPair    map[[2]int]*entity.MonitorConfig
	created   []*entity.MonitorConfig
	updated   []*entity.MonitorConfig
	deleted   []uint
	createErr error
}

func newFakeMonitorRepo() *fakeMonitorRepo {
	return &fakeMonitorRepo{
		byID:   make(map[uint]*entity.MonitorConfig),
		byPair: make(map[[2]int]*entity.MonitorConfig),
	}
}

func (r *fakeMonitorRepo) Create(ctx context.Context, monitor *entity.MonitorConfig) error {
	if r.createErr != nil {
		return r.createErr
	}
	monitor.ID = uint(len(r.created) + 1)
	r.created = append(r.created, monitor)
	return nil
}

func (r *fakeMonitorRepo) FindByID(ctx context.Context, id uint) (*entity.MonitorConfig, error) {
	m, ok := r.byID[id]
	if !ok {
		return nil, errors.New("monitor not found")
	}
	return m, nil
}

func (r *fakeMonitorRepo) FindByWebsiteAndProduct(ctx context.Context, websiteID uint, productID int) (*entity.MonitorConfig, error) {
	return r.byPair[[2]int{int(websiteID), productID}], nil
}

func (r *fakeMonitorRepo) FindAll(ctx context.Context) ([]entity.MonitorConfig, error) {
	var all []entity.MonitorConfig
	for _, m := range r.byID {
		all = append(all, *m)
	}
	return all, nil
}

func (r *fakeMonitorRepo) FindActive(ctx context.Context) ([]entity.MonitorConfig, error) {
	return nil, nil
}

func (r *fakeMonitorRepo) Update(ctx context.Context, monitor *entity.MonitorConfig) error {
	r.updated = append(r.updated, monitor)
	return nil
}

func (r *fakeMonitorRepo) Delete(ctx context.Context, id uint) error {
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeMonitorRepo) UpdateChecked(ctx context.Context, id uint, checkedAt time.Time, productName *string) error {
	return nil
}

type fakeWebsiteRepo struct {
	websites map[uint]*entity.Website
}

func newFakeWebsiteRepo(ids ...uint) *fakeWebsiteRepo {
	r := &fakeWebsiteRepo{websites: make(map[uint]*entity.Website)}
	for _, id := range ids {
		r.websites[id] = &entity.Website{ID: id, Name: "site", WebsiteURL: "http://example.com"}
	}
	return r
}

func (r *fakeWebsiteRepo) Create(ctx context.Context, website *entity.Website) error { return nil }

func (r *fakeWebsiteRepo) FindByID(ctx context.Context, id uint) (*entity.Website, error) {
	w, ok := r.websites[id]
	if !ok {
		return nil, errors.New("website not found")
	}
	return w, nil
}

func (r *fakeWebsiteRepo) FindByName(ctx context.Context, name string) (*entity.Website, error) {
	return nil, nil
}

func (r *fakeWebsiteRepo) FindAll(ctx context.Context, activeOnly bool) ([]entity.Website, error) {
	return nil, nil
}

func (r *fakeWebsiteRepo) Update(ctx context.Context, website *entity.Website) error { return nil }
func (r *fakeWebsiteRepo) Delete(ctx context.Context, id uint) error                 { return nil }

type fakeStockRepo struct {
	latest  *entity.StockRecord
	records []entity.StockRecord
}

func (r *fakeStockRepo) Create(ctx context.Context, record *entity.StockRecord) error { return nil }

func (r *fakeStockRepo) FindLatestByMonitor(ctx context.Context, monitorConfigID uint) (*entity.StockRecord, error) {
	return r.latest, nil
}

func (r *fakeStockRepo) FindByMonitor(ctx context.Context, monitorConfigID uint, limit int) ([]entity.StockRecord, error) {
	if limit < len(r.records) {
		return r.records[:limit], nil
	}
	return r.records, nil
}

type fakeHistoryRepo struct {
	rows []entity.MonitorHistory
}

func (r *fakeHistoryRepo) Create(ctx context.Context, history *entity.MonitorHistory) error {
	return nil
}

func (r *fakeHistoryRepo) FindByMonitor(ctx context.Context, monitorConfigID uint, limit int) ([]entity.MonitorHistory, error) {
	if limit < len(r.rows) {
		return r.rows[:limit], nil
	}
	return r.rows, nil
}

func (r *fakeHistoryRepo) FindByEventType(ctx context.Context, eventType string, limit int) ([]entity.MonitorHistory, error) {
	var matched []entity.MonitorHistory
	for _, row := range r.rows {
		if row.EventType == eventType {
			matched = append(matched, row)
		}
		if len(matched) == limit {
			break
		}
	}
	return matched, nil
}

func newTestService(monitors *fakeMonitorRepo, websites *fakeWebsiteRepo, stock *fakeStockRepo, history *fakeHistoryRepo) MonitorService {
	if stock == nil {
		stock = &fakeStockRepo{}
	}
	if history == nil {
		history = &fakeHistoryRepo{}
	}
	return NewMonitorService(monitors, websites, stock, history, logger.NewNop())
}

func TestCreateMonitor(t *testing.T) {
	monitors := newFakeMonitorRepo()
	svc := newTestService(monitors, newFakeWebsiteRepo(1), nil, nil)

	resp, err := svc.CreateMonitor(context.Background(), &dto.CreateMonitorRequest{
		WebsiteID:    1,
		ProductID:    42,
		ThresholdLow: intPtr(5),
	})
	require.NoError(t, err)
	require.Equal(t, uint(1), resp.WebsiteID)
	require.Equal(t, 42, resp.ProductID)
	require.True(t, resp.IsActive)
	require.True(t, resp.NotifyOnRestock)
	require.True(t, resp.NotifyOnPurchase)
	require.True(t, resp.NotifyOnThreshold)
	require.Equal(t, 5, *resp.ThresholdLow)
	require.Len(t, monitors.created, 1)
}

func TestCreateMonitorValidation(t *testing.T) {
	tests := []struct {
		name string
		req  dto.CreateMonitorRequest
	}{
		{name: "missing website", req: dto.CreateMonitorRequest{ProductID: 42}},
		{name: "missing product", req: dto.CreateMonitorRequest{WebsiteID: 1}},
		{name: "high below low", req: dto.CreateMonitorRequest{WebsiteID: 1, ProductID: 42, ThresholdLow: intPtr(10), ThresholdHigh: intPtr(3)}},
		{name: "unknown website", req: dto.CreateMonitorRequest{WebsiteID: 9, ProductID: 42}},
	}

	svc := newTestService(newFakeMonitorRepo(), newFakeWebsiteRepo(1), nil, nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateMonitor(context.Background(), &tc.req)
			require.Error(t, err)
		})
	}
}

func TestCreateMonitorAllowsEqualThresholds(t *testing.T) {
	svc := newTestService(newFakeMonitorRepo(), newFakeWebsiteRepo(1), nil, nil)

	resp, err := svc.CreateMonitor(context.Background(), &dto.CreateMonitorRequest{
		WebsiteID:     1,
		ProductID:     42,
		ThresholdLow:  intPtr(5),
		ThresholdHigh: intPtr(5),
	})
	require.NoError(t, err)
	require.Equal(t, 5, *resp.ThresholdLow)
	require.Equal(t, 5, *resp.ThresholdHigh)
}

func TestCreateMonitorRejectsDuplicatePair(t *testing.T) {
	monitors := newFakeMonitorRepo()
	monitors.byPair[[2]int{1, 42}] = &entity.MonitorConfig{ID: 7, WebsiteID: 1, ProductID: 42}
	svc := newTestService(monitors, newFakeWebsiteRepo(1), nil, nil)

	_, err := svc.CreateMonitor(context.Background(), &dto.CreateMonitorRequest{WebsiteID: 1, ProductID: 42})
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")
}

func TestUpdateMonitorValidatesMergedThresholds(t *testing.T) {
	monitors := newFakeMonitorRepo()
	monitors.byID[1] = &entity.MonitorConfig{ID: 1, WebsiteID: 1, ProductID: 42, ThresholdLow: intPtr(10)}
	svc := newTestService(monitors, newFakeWebsiteRepo(1), nil, nil)

	// The new high is checked against the existing low.
	_, err := svc.UpdateMonitor(context.Background(), 1, &dto.UpdateMonitorRequest{ThresholdHigh: intPtr(5)})
	require.Error(t, err)
	require.Empty(t, monitors.updated)

	resp, err := svc.UpdateMonitor(context.Background(), 1, &dto.UpdateMonitorRequest{
		ThresholdHigh: intPtr(50),
		IsActive:      boolPtr(false),
	})
	require.NoError(t, err)
	require.Equal(t, 50, *resp.ThresholdHigh)
	require.False(t, resp.IsActive)
	require.Len(t, monitors.updated, 1)
}

func TestGetStatusSummary(t *testing.T) {
	now := time.Now().UTC()
	monitors := newFakeMonitorRepo()
	monitors.byID[1] = &entity.MonitorConfig{
		ID: 1, WebsiteID: 2, ProductID: 42, IsActive: true, LastCheckedAt: &now,
	}
	stock := &fakeStockRepo{latest: &entity.StockRecord{
		MonitorConfigID: 1, Quantity: 3, ChangeType: entity.ChangeTypePurchase, ThresholdBreached: true,
	}}
	history := &fakeHistoryRepo{rows: []entity.MonitorHistory{{}, {}, {}}}
	svc := newTestService(monitors, newFakeWebsiteRepo(2), stock, history)

	status, err := svc.GetStatusSummary(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, uint(1), status.MonitorID)
	require.Equal(t, 3, *status.CurrentQuantity)
	require.Equal(t, entity.ChangeTypePurchase, *status.LastChangeType)
	require.True(t, status.ThresholdBreached)
	require.Equal(t, 3, status.RecentEvents)
	require.Equal(t, &now, status.LastCheckedAt)
}

func TestGetHistoryByEventType(t *testing.T) {
	history := &fakeHistoryRepo{rows: []entity.MonitorHistory{
		{MonitorConfigID: 1, EventType: "stock_decreased"},
		{MonitorConfigID: 2, EventType: "threshold_breach_low"},
		{MonitorConfigID: 3, EventType: "stock_decreased"},
	}}
	svc := newTestService(newFakeMonitorRepo(), newFakeWebsiteRepo(1), nil, history)

	rows, err := svc.GetHistoryByEventType(context.Background(), "stock_decreased", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Equal(t, "stock_decreased", row.EventType)
	}

	_, err = svc.GetHistoryByEventType(context.Background(), "", 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "event_type is required")
}

func TestHistoryQueriesApplyDefaultLimit(t *testing.T) {
	monitors := newFakeMonitorRepo()
	stock := &fakeStockRepo{records: make([]entity.StockRecord, 150)}
	history := &fakeHistoryRepo{rows: make([]entity.MonitorHistory, 150)}
	svc := newTestService(monitors, newFakeWebsiteRepo(1), stock, history)

	records, err := svc.GetStockHistory(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, records, defaultHistoryLimit)

	rows, err := svc.GetMonitorHistory(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, rows, 20)
}
