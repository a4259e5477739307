package model

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Coordinate is a WGS-84 point. Immutable value type.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Validate checks that the coordinate lies within WGS-84 bounds.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return eris.Errorf("coordinate: latitude %.6f out of range [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return eris.Errorf("coordinate: longitude %.6f out of range [-180, 180]", c.Lon)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// POI is a single tagged point of interest returned by a feature source.
// Ways and relations are reduced to their center point by the source.
type POI struct {
	ID   int64             `json:"id"`
	Lat  float64           `json:"latitude"`
	Lon  float64           `json:"longitude"`
	Tags map[string]string `json:"tags"`
}

// Tag returns the value for key, or "" when the POI lacks it.
func (p POI) Tag(key string) string {
	return p.Tags[key]
}
