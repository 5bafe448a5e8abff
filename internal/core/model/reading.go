package model

import (
	"fmt"
	"time"
)

// Region selects the Dexcom Share server cluster for an account.
type Region string

const (
	RegionUS  Region = "us"
	RegionOUS Region = "ous"
	RegionJP  Region = "jp"
)

// Regions lists all supported regions in display order.
func Regions() []Region {
	return []Region{RegionUS, RegionOUS, RegionJP}
}

// ParseRegion validates a region string before it reaches the provider.
func ParseRegion(value string) (Region, error) {
	switch Region(value) {
	case RegionUS, RegionOUS, RegionJP:
		return Region(value), nil
	}
	return "", fmt.Errorf("unsupported region %q", value)
}

// Credentials identify a Dexcom Share account.
type Credentials struct {
	Username string
	Password string
	Region   Region
}

// Empty reports whether the credentials are unusable for authentication.
func (credentials Credentials) Empty() bool {
	return credentials.Username == "" || credentials.Password == ""
}

// Trend classifies the direction of the tracked metric.
type Trend string

const (
	TrendSteady  Trend = "steady"
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendUnknown Trend = "unknown"
)

// Reading is one glucose sample as reported by the provider.
// Immutable once constructed.
type Reading struct {
	Value      int
	Trend      Trend
	ObservedAt time.Time
}
