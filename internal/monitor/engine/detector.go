package engine

import (
	"whmcs-stock-monitor/internal/entity"
)

// Classification is the result of comparing a reading against its
// predecessor and the configured thresholds.
type Classification struct {
	Delta             int
	ChangeType        entity.ChangeType
	ThresholdBreached bool
	ThresholdType     *entity.ThresholdType
}

// ChangeDetector turns (previous quantity, current quantity, thresholds)
// into a classified change. It is stateless: identical inputs always
// produce identical classifications.
type ChangeDetector struct{}

// Classify computes the delta, change type and threshold verdict.
//
// The first reading for a monitor (previousQuantity == nil) is always
// "initial" with a zero delta and never flags a threshold breach, so a cold
// start cannot raise a false alarm. A pair with the high threshold below
// the low one is misconfigured and reports no breach; otherwise the low
// threshold is checked first and takes precedence, including when the two
// are equal.
func (ChangeDetector) Classify(previousQuantity *int, currentQuantity int, thresholdLow, thresholdHigh *int) Classification {
	if previousQuantity == nil {
		return Classification{ChangeType: entity.ChangeTypeInitial}
	}

	c := Classification{Delta: currentQuantity - *previousQuantity}
	switch {
	case c.Delta > 0:
		c.ChangeType = entity.ChangeTypeRestock
	case c.Delta < 0:
		c.ChangeType = entity.ChangeTypePurchase
	default:
		c.ChangeType = entity.ChangeTypeUnchanged
	}

	if thresholdLow != nil && thresholdHigh != nil && *thresholdHigh < *thresholdLow {
		return c
	}

	if thresholdLow != nil && currentQuantity <= *thresholdLow {
		c.ThresholdBreached = true
		t := entity.ThresholdTypeLow
		c.ThresholdType = &t
		return c
	}
	if thresholdHigh != nil && currentQuantity >= *thresholdHigh {
		c.ThresholdBreached = true
		t := entity.ThresholdTypeHigh
		c.ThresholdType = &t
	}
	return c
}
