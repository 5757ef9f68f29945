// Package landtransfer calculates Ontario land transfer tax, the Toronto
// municipal add-on, and first-time-buyer rebates.
package landtransfer

import (
	"strings"

	"github.com/openlistings/mortgage-engine/pkg/mathutil"
)

// Jurisdiction identifies which land transfer taxes apply to a purchase.
type Jurisdiction int

// Supported jurisdictions. TorontoOntario pays both the provincial tax and
// the municipal add-on; Other pays neither.
const (
	Other Jurisdiction = iota
	Ontario
	TorontoOntario
)

// Rebate caps for first-time buyers.
const (
	provincialRebateCap = 4000.0
	municipalRebateCap  = 4475.0
)

// bracket is one marginal band of the progressive tax formula.
type bracket struct {
	upTo float64 // upper bound of the band; 0 means unbounded
	rate float64
}

// Ontario and Toronto apply the same marginal bands.
var brackets = []bracket{
	{55000, 0.005},
	{250000, 0.010},
	{400000, 0.015},
	{2000000, 0.020},
	{0, 0.025},
}

// Result holds the land transfer tax breakdown for a purchase.
type Result struct {
	Provincial float64 `json:"provincial"`
	Municipal  float64 `json:"municipal"`
	Rebate     float64 `json:"rebate"`
	NetPayable float64 `json:"netPayable"`
}

// ResolveJurisdiction maps a free-text location onto a Jurisdiction. Listing
// data carries location as display text, so detection is a substring match;
// callers that know the jurisdiction should pass it to Calculate directly.
func ResolveJurisdiction(locationText string) Jurisdiction {
	if strings.Contains(strings.ToLower(locationText), "toronto") {
		return TorontoOntario
	}
	return Ontario
}

// Calculate computes the land transfer tax breakdown for a purchase price in
// the given jurisdiction, including the first-time-buyer rebate when it
// applies.
func Calculate(purchasePrice float64, firstTimeBuyer bool, jurisdiction Jurisdiction) Result {
	var result Result
	if jurisdiction == Other {
		return result
	}

	result.Provincial = progressiveTax(purchasePrice)
	if jurisdiction == TorontoOntario {
		result.Municipal = progressiveTax(purchasePrice)
	}

	if firstTimeBuyer {
		result.Rebate = mathutil.Min(result.Provincial, provincialRebateCap)
		if jurisdiction == TorontoOntario {
			result.Rebate += mathutil.Min(result.Municipal, municipalRebateCap)
		}
	}

	result.NetPayable = result.Provincial + result.Municipal - result.Rebate
	return result
}

// CalculateForLocation is a convenience wrapper that resolves the
// jurisdiction from free-text location before calculating.
func CalculateForLocation(purchasePrice float64, firstTimeBuyer bool, locationText string) Result {
	return Calculate(purchasePrice, firstTimeBuyer, ResolveJurisdiction(locationText))
}

// progressiveTax applies the marginal bands to a price; each band taxes only
// the portion of the price that falls within it.
func progressiveTax(price float64) float64 {
	tax := 0.0
	lower := 0.0
	for _, b := range brackets {
		upper := b.upTo
		if upper == 0 || upper > price {
			upper = price
		}
		if upper > lower {
			tax += (upper - lower) * b.rate
		}
		if b.upTo == 0 || price <= b.upTo {
			break
		}
		lower = b.upTo
	}
	return tax
}
