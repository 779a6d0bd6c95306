package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"whmcs-stock-monitor/internal/entity"
	"whmcs-stock-monitor/internal/events"
	"whmcs-stock-monitor/internal/whmcs"
	"whmcs-stock-monitor/pkg/logger"
	"whmcs-stock-monitor/pkg/utils"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// maxErrorMessages bounds the error detail kept on a cycle result.
const maxErrorMessages = 10

// Storage is the persistence port the engine calls through. Implemented by
// the repository package; each monitor's persist step is an independent
// unit of work.
type Storage interface {
	GetActiveMonitors(ctx context.Context) ([]entity.MonitorConfig, error)
	GetLatestStockRecord(ctx context.Context, monitorConfigID uint) (*entity.StockRecord, error)
	SaveStockRecord(ctx context.Context, record *entity.StockRecord) error
	SaveMonitorHistory(ctx context.Context, history *entity.MonitorHistory) error
	UpdateMonitorChecked(ctx context.Context, monitorConfigID uint, checkedAt time.Time, productName *string) error
}

// ClientFactory yields an inventory client for a website. Implementations
// may cache clients across cycles.
type ClientFactory interface {
	ClientFor(website *entity.Website) (whmcs.InventoryClient, error)
}

// CycleResult aggregates one full pass over all active monitors.
type CycleResult struct {
	StartedAt         time.Time `json:"started_at"`
	CompletedAt       time.Time `json:"completed_at"`
	MonitorsChecked   int       `json:"monitors_checked"`
	RecordsCreated    int       `json:"records_created"`
	ChangesDetected   int       `json:"changes_detected"`
	ThresholdBreaches int       `json:"threshold_breaches"`
	Errors            int       `json:"errors"`
	EventsEmitted     int       `json:"events_emitted"`
	ErrorMessages     []string  `json:"error_messages,omitempty"`
}

// Config holds engine tuning knobs.
type Config struct {
	// Concurrency bounds how many monitors are polled in parallel within
	// one cycle. Values below 2 mean sequential processing.
	Concurrency int
}

// Engine runs monitoring cycles. It holds no per-cycle state between runs;
// single-flight discipline is the scheduler's job.
type Engine struct {
	storage  Storage
	clients  ClientFactory
	detector ChangeDetector
	bus      *events.Bus
	logger   *logger.Logger
	cfg      Config
}

// New creates a monitoring engine.
func New(storage Storage, clients ClientFactory, bus *events.Bus, log *logger.Logger, cfg Config) *Engine {
	return &Engine{
		storage: storage,
		clients: clients,
		bus:     bus,
		logger:  log,
		cfg:     cfg,
	}
}

// monitorOutcome is the per-monitor contribution to the cycle result.
type monitorOutcome struct {
	recordCreated     bool
	changeDetected    bool
	thresholdBreached bool
	eventsEmitted     int
}

// RunCycle polls every active monitor once. Per-monitor failures are
// downgraded to monitor_error events; only a failure to enumerate the
// active monitors makes the cycle itself fail.
func (e *Engine) RunCycle(ctx context.Context) (CycleResult, error) {
	result := CycleResult{StartedAt: time.Now().UTC()}

	e.logger.Info("Starting monitoring cycle")
	e.publish(events.NewStockEvent(events.EventMonitorStarted), &result)

	monitors, err := e.storage.GetActiveMonitors(ctx)
	if err != nil {
		result.CompletedAt = time.Now().UTC()
		e.logger.Error("Failed to load active monitors", logger.ErrorField(err))
		return result, fmt.Errorf("failed to load active monitors: %w", err)
	}

	result.MonitorsChecked = len(monitors)
	if len(monitors) == 0 {
		e.logger.Info("No active monitors found")
		result.CompletedAt = time.Now().UTC()
		e.publishCompleted(&result)
		return result, nil
	}

	var mu sync.Mutex
	apply := func(outcome monitorOutcome, checkErr error, monitor *entity.MonitorConfig) {
		mu.Lock()
		defer mu.Unlock()
		result.EventsEmitted += outcome.eventsEmitted
		if checkErr != nil {
			result.Errors++
			if len(result.ErrorMessages) < maxErrorMessages {
				result.ErrorMessages = append(result.ErrorMessages,
					fmt.Sprintf("monitor %d (product %d): %v", monitor.ID, monitor.ProductID, checkErr))
			}
			return
		}
		if outcome.recordCreated {
			result.RecordsCreated++
		}
		if outcome.changeDetected {
			result.ChangesDetected++
		}
		if outcome.thresholdBreached {
			result.ThresholdBreaches++
		}
	}

	if e.cfg.Concurrency > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.Concurrency)
		for i := range monitors {
			monitor := &monitors[i]
			g.Go(func() error {
				outcome, err := e.checkMonitor(gctx, monitor)
				apply(outcome, err, monitor)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range monitors {
			monitor := &monitors[i]
			outcome, err := e.checkMonitor(ctx, monitor)
			apply(outcome, err, monitor)
		}
	}

	result.CompletedAt = time.Now().UTC()
	e.logger.Info("Monitoring cycle completed",
		logger.IntField("monitors_checked", result.MonitorsChecked),
		logger.IntField("records_created", result.RecordsCreated),
		logger.IntField("changes_detected", result.ChangesDetected),
		logger.IntField("threshold_breaches", result.ThresholdBreaches),
		logger.IntField("errors", result.Errors))
	e.publishCompleted(&result)

	return result, nil
}

// checkMonitor polls one monitor: fetch fresh inventory, classify the
// change, persist the record (and history, when notable), then publish the
// corresponding events. On failure nothing is persisted for the reading
// and a monitor_error event is recorded instead.
func (e *Engine) checkMonitor(ctx context.Context, monitor *entity.MonitorConfig) (monitorOutcome, error) {
	var outcome monitorOutcome

	e.logger.DebugContext(ctx, "Checking monitor",
		logger.IntField("monitor_id", int(monitor.ID)),
		logger.IntField("product_id", monitor.ProductID))

	client, err := e.clients.ClientFor(&monitor.Website)
	if err != nil {
		e.reportMonitorError(ctx, monitor, err, &outcome)
		return outcome, err
	}

	// Cycles always bypass the cache so the reading is fresh.
	inventory, err := client.GetProductInventory(ctx, monitor.ProductID, false)
	if err != nil {
		e.reportMonitorError(ctx, monitor, err, &outcome)
		return outcome, err
	}

	latest, err := e.storage.GetLatestStockRecord(ctx, monitor.ID)
	if err != nil {
		e.reportMonitorError(ctx, monitor, err, &outcome)
		return outcome, err
	}

	var previousQuantity *int
	if latest != nil {
		previousQuantity = utils.ToPointer(latest.Quantity)
	}

	classification := e.detector.Classify(previousQuantity, inventory.Quantity, monitor.ThresholdLow, monitor.ThresholdHigh)

	metadata, _ := json.Marshal(map[string]interface{}{
		"change_type":   classification.ChangeType,
		"stock_control": inventory.StockControl,
		"available":     inventory.Available,
	})

	record := &entity.StockRecord{
		MonitorConfigID:     monitor.ID,
		Quantity:            inventory.Quantity,
		Delta:               classification.Delta,
		StockControlEnabled: inventory.StockControl,
		Available:           inventory.Available,
		ChangeType:          classification.ChangeType,
		ThresholdBreached:   classification.ThresholdBreached,
		ThresholdType:       classification.ThresholdType,
		Metadata:            datatypes.JSON(metadata),
	}
	if err := e.storage.SaveStockRecord(ctx, record); err != nil {
		e.reportMonitorError(ctx, monitor, err, &outcome)
		return outcome, err
	}
	outcome.recordCreated = true
	outcome.changeDetected = classification.Delta != 0
	outcome.thresholdBreached = classification.ThresholdBreached

	e.emitStockEvents(ctx, monitor, inventory, record, previousQuantity, &outcome)

	var productName *string
	if monitor.ProductName == nil && inventory.Name != "" {
		productName = utils.ToPointer(inventory.Name)
	}
	if err := e.storage.UpdateMonitorChecked(ctx, monitor.ID, time.Now().UTC(), productName); err != nil {
		e.logger.Error("Failed to update monitor check time",
			logger.IntField("monitor_id", int(monitor.ID)), logger.ErrorField(err))
	}

	return outcome, nil
}

// emitStockEvents persists history rows and publishes events for one
// reading. History rows are written for every stock change and breach;
// the notify flags suppress only the published events. When a reading
// yields both a stock change and a threshold breach, the stock-change
// event is always emitted first; this order is a fixed contract.
func (e *Engine) emitStockEvents(ctx context.Context, monitor *entity.MonitorConfig, inventory *whmcs.Inventory, record *entity.StockRecord, previousQuantity *int, outcome *monitorOutcome) {
	base := func(eventType events.EventType) events.StockEvent {
		ev := events.NewStockEvent(eventType)
		ev.MonitorConfigID = monitor.ID
		ev.ProductID = monitor.ProductID
		if monitor.ProductName != nil {
			ev.ProductName = *monitor.ProductName
		} else {
			ev.ProductName = inventory.Name
		}
		ev.Quantity = utils.ToPointer(record.Quantity)
		ev.Delta = utils.ToPointer(record.Delta)
		ev.PreviousQuantity = previousQuantity
		ev.Metadata = map[string]interface{}{
			"change_type":   string(record.ChangeType),
			"stock_control": record.StockControlEnabled,
			"available":     record.Available,
		}
		return ev
	}

	switch {
	case record.Delta > 0:
		ev := base(events.EventStockIncreased)
		e.recordHistory(ctx, monitor, record, previousQuantity, ev,
			fmt.Sprintf("Restock detected: quantity %s -> %d (%+d)", formatPrev(previousQuantity), record.Quantity, record.Delta))
		if monitor.NotifyOnRestock {
			e.publishOutcome(ev, outcome)
		}
	case record.Delta < 0:
		ev := base(events.EventStockDecreased)
		e.recordHistory(ctx, monitor, record, previousQuantity, ev,
			fmt.Sprintf("Purchase detected: quantity %s -> %d (%+d)", formatPrev(previousQuantity), record.Quantity, record.Delta))
		if monitor.NotifyOnPurchase {
			e.publishOutcome(ev, outcome)
		}
	default:
		if previousQuantity != nil {
			e.publishOutcome(base(events.EventStockUnchanged), outcome)
		}
	}

	if record.ThresholdBreached && record.ThresholdType != nil {
		eventType := events.EventThresholdBreachLow
		thresholdValue := monitor.ThresholdLow
		if *record.ThresholdType == entity.ThresholdTypeHigh {
			eventType = events.EventThresholdBreachHigh
			thresholdValue = monitor.ThresholdHigh
		}
		ev := base(eventType)
		ev.ThresholdType = record.ThresholdType
		ev.ThresholdValue = thresholdValue

		msg := fmt.Sprintf("Threshold %s breached: quantity %d", *record.ThresholdType, record.Quantity)
		if thresholdValue != nil {
			if *record.ThresholdType == entity.ThresholdTypeLow {
				msg = fmt.Sprintf("Low threshold breached: quantity %d <= %d", record.Quantity, *thresholdValue)
			} else {
				msg = fmt.Sprintf("High threshold breached: quantity %d >= %d", record.Quantity, *thresholdValue)
			}
		}
		e.recordHistory(ctx, monitor, record, previousQuantity, ev, msg)
		if monitor.NotifyOnThreshold {
			e.publishOutcome(ev, outcome)
		}
	}
}

// reportMonitorError records a per-monitor failure without aborting the
// cycle: a history row plus a monitor_error event.
func (e *Engine) reportMonitorError(ctx context.Context, monitor *entity.MonitorConfig, err error, outcome *monitorOutcome) {
	e.logger.Error("Monitor check failed",
		logger.IntField("monitor_id", int(monitor.ID)),
		logger.IntField("product_id", monitor.ProductID),
		logger.ErrorField(err))

	history := &entity.MonitorHistory{
		MonitorConfigID: monitor.ID,
		EventType:       string(events.EventMonitorError),
		Message:         err.Error(),
	}
	if saveErr := e.storage.SaveMonitorHistory(ctx, history); saveErr != nil {
		e.logger.Error("Failed to save monitor error history",
			logger.IntField("monitor_id", int(monitor.ID)), logger.ErrorField(saveErr))
	}

	ev := events.NewStockEvent(events.EventMonitorError)
	ev.MonitorConfigID = monitor.ID
	ev.ProductID = monitor.ProductID
	if monitor.ProductName != nil {
		ev.ProductName = *monitor.ProductName
	}
	ev.ErrorMessage = err.Error()
	e.publishOutcome(ev, outcome)
}

func (e *Engine) recordHistory(ctx context.Context, monitor *entity.MonitorConfig, record *entity.StockRecord, previousQuantity *int, ev events.StockEvent, message string) {
	history := &entity.MonitorHistory{
		MonitorConfigID:   monitor.ID,
		EventType:         string(ev.EventType),
		FromQuantity:      previousQuantity,
		ToQuantity:        record.Quantity,
		Delta:             record.Delta,
		ChangeType:        record.ChangeType,
		ThresholdBreached: record.ThresholdBreached,
		ThresholdType:     record.ThresholdType,
		ThresholdValue:    ev.ThresholdValue,
		Message:           message,
		Metadata:          record.Metadata,
	}
	if err := e.storage.SaveMonitorHistory(ctx, history); err != nil {
		e.logger.Error("Failed to save monitor history",
			logger.IntField("monitor_id", int(monitor.ID)), logger.ErrorField(err))
	}
}

func (e *Engine) publishOutcome(ev events.StockEvent, outcome *monitorOutcome) {
	e.bus.Publish(ev)
	outcome.eventsEmitted++
}

func (e *Engine) publish(ev events.StockEvent, result *CycleResult) {
	e.bus.Publish(ev)
	result.EventsEmitted++
}

func (e *Engine) publishCompleted(result *CycleResult) {
	ev := events.NewStockEvent(events.EventMonitorCompleted)
	ev.Metadata = map[string]interface{}{
		"monitors_checked":   result.MonitorsChecked,
		"records_created":    result.RecordsCreated,
		"changes_detected":   result.ChangesDetected,
		"threshold_breaches": result.ThresholdBreaches,
		"errors":             result.Errors,
	}
	e.publish(ev, result)
}

func formatPrev(previousQuantity *int) string {
	if previousQuantity == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *previousQuantity)
}
