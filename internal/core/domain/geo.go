package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BBox is an axis-aligned longitude/latitude rectangle.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// IsEmpty reports whether the box has zero area.
func (b BBox) IsEmpty() bool {
	return b.MinLon == b.MaxLon || b.MinLat == b.MaxLat
}

// Contains reports whether p lies inside the box, edges included.
// A zero-area box contains nothing.
func (b BBox) Contains(p GeoPoint) bool {
	if b.IsEmpty() {
		return false
	}
	return p.Lon >= b.MinLon && p.Lon <= b.MaxLon &&
		p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// String renders the box in the same order ParseBBox accepts.
func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// ParseBBox parses "minLon,minLat,maxLon,maxLat".
func ParseBBox(raw string) (*BBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: in_bbox needs 4 comma-separated numbers, got %d", ErrInvalidFilter, len(parts))
	}

	var vals [4]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: in_bbox value %q is not a number", ErrInvalidFilter, part)
		}
		vals[i] = v
	}

	b := &BBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
	switch {
	case b.MinLon < -180 || b.MaxLon > 180:
		return nil, fmt.Errorf("%w: in_bbox longitude must be between -180 and 180", ErrInvalidFilter)
	case b.MinLat < -90 || b.MaxLat > 90:
		return nil, fmt.Errorf("%w: in_bbox latitude must be between -90 and 90", ErrInvalidFilter)
	case b.MinLon > b.MaxLon || b.MinLat > b.MaxLat:
		return nil, fmt.Errorf("%w: in_bbox minimum exceeds maximum", ErrInvalidFilter)
	}
	return b, nil
}
