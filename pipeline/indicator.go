package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aouyang1/go-macroforecast/eurostat"
	"github.com/aouyang1/go-macroforecast/fred"
)

const (
	KindHICP = "hicp"
	KindECB  = "ecb"
	KindFed  = "fed"

	// RegionUS labels the federal funds series
	RegionUS = "US"
)

var (
	ErrInvalidIndicator     = errors.New("indicator must be formatted as kind:code")
	ErrUnsupportedIndicator = errors.New("unsupported indicator")
)

// Indicator names a series family and its code, e.g. hicp:CP00, ecb:DFR or fed:DFF
type Indicator struct {
	Kind string `json:"kind"`
	Code string `json:"code"`
}

// ParseIndicator parses kind:code. Kinds are case insensitive and codes are upper cased.
func ParseIndicator(s string) (Indicator, error) {
	kind, code, ok := strings.Cut(strings.TrimSpace(s), ":")
	kind = strings.ToLower(strings.TrimSpace(kind))
	code = strings.ToUpper(strings.TrimSpace(code))
	if !ok || kind == "" || code == "" {
		return Indicator{}, fmt.Errorf("got %q, %w", s, ErrInvalidIndicator)
	}
	switch kind {
	case KindHICP, KindECB, KindFed:
	default:
		return Indicator{}, fmt.Errorf("kind %q, %w", kind, ErrUnsupportedIndicator)
	}
	return Indicator{Kind: kind, Code: code}, nil
}

func (i Indicator) String() string {
	return i.Kind + ":" + i.Code
}

// Name is a readable label for charts and reports
func (i Indicator) Name() string {
	switch i.Kind {
	case KindHICP:
		return eurostat.CategoryName(i.Code)
	case KindECB:
		return "ECB " + eurostat.RateName(i.Code)
	case KindFed:
		if i.Code == fred.SeriesFedFunds {
			return "Fed funds effective rate"
		}
	}
	return i.String()
}

// Region is the fixed region of rate indicators, or the empty string for per country series
func (i Indicator) Region() string {
	switch i.Kind {
	case KindECB:
		return eurostat.RegionEuroArea
	case KindFed:
		return RegionUS
	}
	return ""
}
