package progress

import (
	"fmt"
	"math"

	"vmp-edtech-backend/internal/domain"
)

const (
	MinQuoteQuantity = 1
	MaxQuoteQuantity = 500
)

// base price per student, ARS
var coursePrices = map[string]float64{
	"defensivo":    4000,
	"carga_pesada": 4500,
	"4x4":          6800,
	"completo":     13000,
}

// catalog course each quoter course converts into
var courseCodes = map[string]string{
	"defensivo":    "COND-DEF",
	"carga_pesada": "COND-CP",
	"4x4":          "COND-4X4",
	"completo":     "COND-COMP",
}

// CourseCode maps a quoter course key to the code of the catalog course.
func CourseCode(course string) (string, bool) {
	code, ok := courseCodes[course]
	return code, ok
}

var modalityFactors = map[string]float64{
	"online":     1.0,
	"presencial": 1.8,
	"mixto":      1.4,
}

type QuotePrice struct {
	Total      float64
	PerStudent float64
	Discount   int // percent
}

// VolumeDiscount returns the discount percent for a group size.
func VolumeDiscount(quantity int) int {
	switch {
	case quantity >= 200:
		return 50
	case quantity >= 51:
		return 30
	case quantity >= 11:
		return 15
	default:
		return 0
	}
}

// PriceQuote computes the quoter price: quantity * base * (1 - discount) * modality,
// rounded to the unit. The per-student price is the rounded total divided by quantity.
func PriceQuote(course, modality string, quantity int) (QuotePrice, error) {
	base, ok := coursePrices[course]
	if !ok {
		return QuotePrice{}, fmt.Errorf("%w: unknown course %q", domain.ErrInvalidInput, course)
	}
	factor, ok := modalityFactors[modality]
	if !ok {
		return QuotePrice{}, fmt.Errorf("%w: unknown modality %q", domain.ErrInvalidInput, modality)
	}
	if quantity < MinQuoteQuantity || quantity > MaxQuoteQuantity {
		return QuotePrice{}, fmt.Errorf("%w: quantity must be between %d and %d", domain.ErrInvalidInput, MinQuoteQuantity, MaxQuoteQuantity)
	}

	discount := VolumeDiscount(quantity)
	total := math.Round(float64(quantity) * base * (1 - float64(discount)/100) * factor)
	return QuotePrice{
		Total:      total,
		PerStudent: math.Round(total / float64(quantity)),
		Discount:   discount,
	}, nil
}
