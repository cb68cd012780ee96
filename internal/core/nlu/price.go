package nlu

import (
	"regexp"
	"strconv"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

// "to" is rewritten to "2" before extraction runs, so "between 10 2 50"
// is the normalized form of "between 10 to 50".
var (
	priceBetweenRe = regexp.MustCompile(`\bbetween\s+(\d+)\s+(?:and|to|2)\s+(\d+)`)
	priceUnderRe   = regexp.MustCompile(`\bunder\s+(\d+)`)
	priceOverRe    = regexp.MustCompile(`\b(?:above|over|greater\s+than)\s+(\d+)`)
)

// PriceKind tells which phrase produced a price range.
type PriceKind int

const (
	PriceNone PriceKind = iota
	PriceMax
	PriceMin
	PriceBetween
)

// ExtractPrice finds a price phrase in normalized text. "between" wins over
// "under", which wins over "above".
func ExtractPrice(normalized string) (domain.PriceRange, PriceKind) {
	if m := priceBetweenRe.FindStringSubmatch(normalized); m != nil {
		low, okLow := parseAmount(m[1])
		high, okHigh := parseAmount(m[2])
		if okLow && okHigh {
			if low > high {
				low, high = high, low
			}
			return domain.PriceRange{Low: low, High: high}, PriceBetween
		}
	}
	if m := priceUnderRe.FindStringSubmatch(normalized); m != nil {
		if high, ok := parseAmount(m[1]); ok {
			return domain.PriceRange{Low: 0, High: high}, PriceMax
		}
	}
	if m := priceOverRe.FindStringSubmatch(normalized); m != nil {
		if low, ok := parseAmount(m[1]); ok {
			return domain.PriceRange{Low: low, High: domain.PriceOpenHigh}, PriceMin
		}
	}
	return domain.PriceRange{}, PriceNone
}

// PriceIntent maps a price phrase kind to its search intent.
func PriceIntent(kind PriceKind) (domain.Intent, bool) {
	switch kind {
	case PriceMax:
		return domain.IntentSearchByPriceMax, true
	case PriceMin:
		return domain.IntentSearchByPriceMin, true
	case PriceBetween:
		return domain.IntentSearchByPriceBetween, true
	default:
		return "", false
	}
}

func parseAmount(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
