package whmcs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Product is the normalized shape of one WHMCS product, independent of the
// upstream field naming.
type Product struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	GroupID      int     `json:"group_id"`
	Module       string  `json:"module"`
	StockControl bool    `json:"stock_control"`
	Quantity     int     `json:"quantity"`
	Available    bool    `json:"available"`
	Pricing      Pricing `json:"pricing"`
	Order        int     `json:"order"`
}

// Pricing maps currency -> billing period -> price point.
type Pricing map[string]map[string]PricePoint

// PricePoint holds the recurring and setup price for one billing period.
type PricePoint struct {
	Price float64 `json:"price"`
	Setup float64 `json:"setup"`
}

// Inventory is the stock view of a single product. When StockControl is
// false the quantity is not meaningful and Available is the sole status
// signal.
type Inventory struct {
	ProductID    int       `json:"product_id"`
	Name         string    `json:"name"`
	StockControl bool      `json:"stock_control"`
	Quantity     int       `json:"quantity"`
	Available    bool      `json:"available"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// apiEnvelope is the outer shape of every WHMCS API response.
type apiEnvelope struct {
	Result       string          `json:"result"`
	Message      string          `json:"message"`
	TotalResults int             `json:"totalresults"`
	Products     json.RawMessage `json:"products"`
}

// flexInt decodes an integer that WHMCS may serialize as a number or a
// numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", s, err)
		}
		*f = flexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexFloat decodes a float that may arrive as a number or a string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid float %q: %w", s, err)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// rawProduct mirrors the upstream product fields before normalization.
type rawProduct struct {
	PID          flexInt                             `json:"pid"`
	GID          flexInt                             `json:"gid"`
	Name         string                              `json:"name"`
	Description  string                              `json:"description"`
	Module       string                              `json:"module"`
	StockControl string                              `json:"stockcontrol"`
	Qty          flexInt                             `json:"qty"`
	Retired      string                              `json:"retired"`
	Order        flexInt                             `json:"order"`
	Pricing      map[string]map[string]rawPricePoint `json:"pricing"`
}

type rawPricePoint struct {
	Price flexFloat `json:"price"`
	Setup flexFloat `json:"setup"`
}

func (p rawProduct) normalize() Product {
	return Product{
		ID:           int(p.PID),
		Name:         p.Name,
		Description:  p.Description,
		GroupID:      int(p.GID),
		Module:       p.Module,
		StockControl: p.StockControl == "1",
		Quantity:     int(p.Qty),
		Available:    p.Retired != "1",
		Pricing:      normalizePricing(p.Pricing),
		Order:        int(p.Order),
	}
}

func normalizePricing(raw map[string]map[string]rawPricePoint) Pricing {
	if len(raw) == 0 {
		return Pricing{}
	}
	pricing := make(Pricing, len(raw))
	for currency, periods := range raw {
		pricing[currency] = make(map[string]PricePoint, len(periods))
		for period, point := range periods {
			pricing[currency][period] = PricePoint{
				Price: float64(point.Price),
				Setup: float64(point.Setup),
			}
		}
	}
	return pricing
}

// decodeProducts handles the three shapes WHMCS uses for the products
// field: {"product": [...]}, {"product": {...}} for a single result, and a
// bare list. Anything else is rejected as malformed.
func decodeProducts(raw json.RawMessage) ([]Product, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	raw = bytes.TrimSpace(raw)
	var rawList []rawProduct

	switch {
	case bytes.Equal(raw, []byte("null")):
		return nil, nil
	case raw[0] == '[':
		if err := json.Unmarshal(raw, &rawList); err != nil {
			return nil, fmt.Errorf("malformed products list: %w", err)
		}
	case raw[0] == '{':
		var wrapper struct {
			Product json.RawMessage `json:"product"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("malformed products object: %w", err)
		}
		inner := bytes.TrimSpace(wrapper.Product)
		if len(inner) == 0 || bytes.Equal(inner, []byte("null")) {
			return nil, nil
		}
		if inner[0] == '{' {
			var single rawProduct
			if err := json.Unmarshal(inner, &single); err != nil {
				return nil, fmt.Errorf("malformed product entry: %w", err)
			}
			rawList = []rawProduct{single}
		} else {
			if err := json.Unmarshal(inner, &rawList); err != nil {
				return nil, fmt.Errorf("malformed product entries: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("unexpected products payload")
	}

	products := make([]Product, 0, len(rawList))
	for _, rp := range rawList {
		products = append(products, rp.normalize())
	}
	return products, nil
}
