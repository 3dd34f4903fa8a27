package normalize

import "github.com/kkaya/gmedash/internal/market"

// Rules is the ordered field-resolution configuration for one response
// shape. The upstream API defines dozens of data-set schemas with
// disjoint and overlapping field names; resolution order is data here
// so it stays auditable per data-set instead of being buried in
// branching logic.
type Rules struct {
	// DateKeys are probed in order before falling back to any key
	// containing "date" (case-insensitive).
	DateKeys []string

	// IntervalKeys are probed in order before falling back to any key
	// containing "hour", "interval" or "period".
	IntervalKeys []string

	// PriceCandidates are probed in order; the first present key with a
	// non-zero parsed value wins.
	PriceCandidates []string

	// VolumeGroups are probed group by group; within a group the
	// maximum of the present values is taken. The first group with any
	// present member wins.
	VolumeGroups [][]string

	// Pass-through keys.
	ZoneKeys    []string
	ProductKeys []string
	PeriodKeys  []string
}

// defaultRules matches the zonal-prices shape and serves as the
// fallback for kinds without an explicit entry.
var defaultRules = Rules{
	DateKeys:     []string{"FlowDate", "Date", "RefDate"},
	IntervalKeys: []string{"Hour", "Interval"},
	PriceCandidates: []string{
		"Price",
		"AveragePurchasingPrice",
		"AverageSellingPrice",
		"ReferencePrice",
		"WeightedAveragePrice",
	},
	VolumeGroups: [][]string{
		{"VolumesPurchased", "VolumesSold"},
		{"Purchased", "Sold"},
		{"Volumes"},
	},
	ZoneKeys:    []string{"Zone", "Zona"},
	ProductKeys: []string{"Product", "Type"},
	PeriodKeys:  []string{"Period"},
}

// rulesByKind overrides the default order where a data-set names its
// headline price differently.
var rulesByKind = map[market.Kind]Rules{
	market.KindGas: {
		DateKeys:     []string{"FlowDate", "Date", "RefDate"},
		IntervalKeys: []string{"Hour", "Interval"},
		PriceCandidates: []string{
			"Price",
			"AveragePrice",
			"AveragePurchasingPrice",
			"AverageSellingPrice",
			"ReferencePrice",
			"WeightedAveragePrice",
		},
		VolumeGroups: [][]string{
			{"VolumesPurchased", "VolumesSold"},
			{"Purchased", "Sold"},
			{"VolumesMWh"},
			{"VolumesMW"},
			{"Volumes"},
		},
		ZoneKeys:    []string{"Zone", "Zona"},
		ProductKeys: []string{"Product", "Type"},
		PeriodKeys:  []string{"Period"},
	},
	market.KindEnvironmental: {
		DateKeys:     []string{"Date", "FlowDate", "RefDate"},
		IntervalKeys: []string{"Hour", "Interval", "Session"},
		PriceCandidates: []string{
			"ReferencePrice",
			"WeightedAveragePrice",
			"Price",
			"AveragePurchasingPrice",
			"AverageSellingPrice",
		},
		VolumeGroups: [][]string{
			{"Volumes"},
			{"VolumesPurchased", "VolumesSold"},
		},
		ZoneKeys:    []string{"Zone"},
		ProductKeys: []string{"Type", "Product"},
		PeriodKeys:  []string{"Period"},
	},
}

// RulesFor returns the resolution rules for a response shape.
func RulesFor(kind market.Kind) Rules {
	if r, ok := rulesByKind[kind]; ok {
		return r
	}
	return defaultRules
}
