package market

import (
	"fmt"
)

// Type classifies a market by commodity
type Type string

const (
	TypeElectricity   Type = "electricity"
	TypeGas           Type = "gas"
	TypeEnvironmental Type = "environmental"
)

// Kind selects the response shape of the upstream data-set and drives
// the normalizer's field-resolution rules
type Kind string

const (
	KindZonal         Kind = "ZONAL"
	KindMSDExAnte     Kind = "MSD_EXANTE"
	KindMSDExPost     Kind = "MSD_EXPOST"
	KindBalancing     Kind = "BALANCING"
	KindGas           Kind = "GAS"
	KindEnvironmental Kind = "ENVIRONMENTAL"
)

// Spec is the resolved upstream request parameters for a user-facing
// market id. Specs are immutable entries of a static table.
type Spec struct {
	ID       string // user-facing id, e.g. "MI1"
	Name     string // display name for listings
	Type     Type
	Segment  string // upstream session code, e.g. "MI-A1"
	DataName string // upstream data-set, e.g. "ME_ZonalPrices"
	Kind     Kind
}

// UnknownMarketError reports a market id outside the supported table.
// It is a caller bug, never retriable.
type UnknownMarketError struct {
	ID string
}

func (e *UnknownMarketError) Error() string {
	return fmt.Sprintf("unknown market id: %q", e.ID)
}

// specs is the full supported market table. The upstream API does not
// accept "MI1".."MI3" literally; those sessions are addressed as
// "MI-A1".."MI-A3". MI-GAS1..3 share the single "MI-GAS" segment and
// are disambiguated by the response's product field, not the request.
var specs = []Spec{
	// Electricity (MPE)
	{ID: "MGP", Name: "MGP - Day-Ahead Market", Type: TypeElectricity, Segment: "MGP", DataName: "ME_ZonalPrices", Kind: KindZonal},
	{ID: "MI1", Name: "MI1 - Intraday Session 1", Type: TypeElectricity, Segment: "MI-A1", DataName: "ME_ZonalPrices", Kind: KindZonal},
	{ID: "MI2", Name: "MI2 - Intraday Session 2", Type: TypeElectricity, Segment: "MI-A2", DataName: "ME_ZonalPrices", Kind: KindZonal},
	{ID: "MI3", Name: "MI3 - Intraday Session 3", Type: TypeElectricity, Segment: "MI-A3", DataName: "ME_ZonalPrices", Kind: KindZonal},
	{ID: "MI4", Name: "MI4 - Intraday Session 4", Type: TypeElectricity, Segment: "MI4", DataName: "ME_ZonalPrices", Kind: KindZonal},
	{ID: "MI5", Name: "MI5 - Intraday Session 5", Type: TypeElectricity, Segment: "MI5", DataName: "ME_ZonalPrices", Kind: KindZonal},
	{ID: "MI6", Name: "MI6 - Intraday Session 6", Type: TypeElectricity, Segment: "MI6", DataName: "ME_ZonalPrices", Kind: KindZonal},
	{ID: "MI7", Name: "MI7 - Intraday Session 7", Type: TypeElectricity, Segment: "MI7", DataName: "ME_ZonalPrices", Kind: KindZonal},
	{ID: "MSD", Name: "MSD - Ancillary Services Market", Type: TypeElectricity, Segment: "MSD", DataName: "ME_MSDExAnteResults", Kind: KindMSDExAnte},
	{ID: "MSD-EXPOST", Name: "MSD - Ancillary Services (Ex-Post)", Type: TypeElectricity, Segment: "MSD", DataName: "ME_MSDExPostResults", Kind: KindMSDExPost},
	{ID: "MB", Name: "MB - Balancing Market", Type: TypeElectricity, Segment: "MB", DataName: "ME_MBResults", Kind: KindBalancing},

	// Gas (MGAS)
	{ID: "MGP-GAS", Name: "MGP-GAS - Day-Ahead Gas Market", Type: TypeGas, Segment: "MGP-GAS", DataName: "GAS_ContinuousTrading", Kind: KindGas},
	{ID: "MI-GAS", Name: "MI-GAS - Intraday Gas Market", Type: TypeGas, Segment: "MI-GAS", DataName: "GAS_ContinuousTrading", Kind: KindGas},
	{ID: "MI-GAS1", Name: "MI-GAS1 - Gas Intraday Session 1", Type: TypeGas, Segment: "MI-GAS", DataName: "GAS_ContinuousTrading", Kind: KindGas},
	{ID: "MI-GAS2", Name: "MI-GAS2 - Gas Intraday Session 2", Type: TypeGas, Segment: "MI-GAS", DataName: "GAS_ContinuousTrading", Kind: KindGas},
	{ID: "MI-GAS3", Name: "MI-GAS3 - Gas Intraday Session 3", Type: TypeGas, Segment: "MI-GAS", DataName: "GAS_ContinuousTrading", Kind: KindGas},
	{ID: "MGS", Name: "MGS - Gas Storage Market", Type: TypeGas, Segment: "MGS", DataName: "GAS_ContinuousTrading", Kind: KindGas},

	// Environmental (M-TE / M-GO)
	{ID: "TEE", Name: "TEE - Energy Efficiency Certificates", Type: TypeEnvironmental, Segment: "TEE", DataName: "ENV_Results", Kind: KindEnvironmental},
	{ID: "GO", Name: "GO - Guarantees of Origin", Type: TypeEnvironmental, Segment: "GO", DataName: "ENV_Results", Kind: KindEnvironmental},
	{ID: "CV", Name: "CV - Green Certificates", Type: TypeEnvironmental, Segment: "CV", DataName: "ENV_Results", Kind: KindEnvironmental},
}

var specsByID = func() map[string]Spec {
	m := make(map[string]Spec, len(specs))
	for _, s := range specs {
		m[s.ID] = s
	}
	return m
}()

// Resolve maps a user-facing market id to its upstream request
// parameters. Pure lookup, no side effects.
func Resolve(marketID string) (Spec, error) {
	spec, ok := specsByID[marketID]
	if !ok {
		return Spec{}, &UnknownMarketError{ID: marketID}
	}
	return spec, nil
}

// All returns the full market table in declaration order.
func All() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// ByType returns the market table filtered by commodity, in
// declaration order. Used by the /api/markets listing.
func ByType(t Type) []Spec {
	var out []Spec
	for _, s := range specs {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}
