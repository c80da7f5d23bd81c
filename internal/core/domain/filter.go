package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// PropertyFilter narrows a property listing. Nil fields impose no constraint;
// set fields are combined with AND.
type PropertyFilter struct {
	PortfolioID *int64
	BBox        *BBox
}

// Matches reports whether p satisfies every supplied constraint.
func (f PropertyFilter) Matches(p Property) bool {
	if f.PortfolioID != nil && p.PortfolioID != *f.PortfolioID {
		return false
	}
	if f.BBox != nil && !f.BBox.Contains(p.Location) {
		return false
	}
	return true
}

// Apply returns the properties matching f, preserving input order.
func (f PropertyFilter) Apply(props []Property) []Property {
	out := make([]Property, 0, len(props))
	for _, p := range props {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// MatchesNothing reports whether the filter is known to select no rows
// without looking at any data.
func (f PropertyFilter) MatchesNothing() bool {
	return f.BBox != nil && f.BBox.IsEmpty()
}

// ParseID parses a positive integer identifier.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a valid id", ErrInvalidFilter, raw)
	}
	return id, nil
}

// ParsePropertyFilter builds a filter from raw query values. Empty strings
// mean the dimension is unconstrained.
func ParsePropertyFilter(portfolio, inBBox string) (PropertyFilter, error) {
	var f PropertyFilter
	if portfolio != "" {
		id, err := ParseID(portfolio)
		if err != nil {
			return f, fmt.Errorf("portfolio: %w", err)
		}
		f.PortfolioID = &id
	}
	if inBBox != "" {
		b, err := ParseBBox(inBBox)
		if err != nil {
			return f, err
		}
		f.BBox = b
	}
	return f, nil
}
