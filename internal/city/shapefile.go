package city

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ImportShapefile reads city boundaries from an administrative-boundary
// polygon shapefile. idField and nameField name the DBF attributes
// carrying the city identifier and display name. Multi-part polygons
// are reduced to their largest ring; interior holes are dropped, which
// is acceptable for city-scale containment checks.
func ImportShapefile(shpPath, idField, nameField string) ([]City, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "city: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	idIdx, ok := fieldIdx[strings.ToLower(idField)]
	if !ok {
		return nil, eris.Errorf("city: shapefile has no %q field", idField)
	}
	nameIdx, ok := fieldIdx[strings.ToLower(nameField)]
	if !ok {
		return nil, eris.Errorf("city: shapefile has no %q field", nameField)
	}

	var cities []City
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			skipped++
			continue
		}

		ring := largestRing(poly)
		if len(ring) < 3 {
			skipped++
			continue
		}

		id := strings.TrimSpace(strings.TrimRight(reader.Attribute(idIdx), "\x00"))
		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		if id == "" {
			skipped++
			continue
		}

		cities = append(cities, City{
			ID:       foldName(id),
			Name:     name,
			Boundary: ring,
		})
	}

	if skipped > 0 {
		zap.L().Debug("city: skipped shapefile records", zap.Int("skipped", skipped))
	}
	if len(cities) == 0 {
		return nil, eris.Errorf("city: shapefile %s yielded no usable polygons", shpPath)
	}

	return cities, nil
}

// largestRing picks the polygon part enclosing the most area, as
// [lon, lat] pairs.
func largestRing(p *shp.Polygon) [][]float64 {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var best [][]float64
	var bestArea float64

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		ring := make([][]float64, 0, end-start)
		for j := start; j < end; j++ {
			ring = append(ring, []float64{p.Points[j].X, p.Points[j].Y})
		}

		if area := shoelaceArea(ring); area > bestArea {
			bestArea = area
			best = ring
		}
	}

	return best
}

// shoelaceArea returns the absolute planar area of a ring. Only used to
// compare parts of one polygon, so the projection error cancels out.
func shoelaceArea(ring [][]float64) float64 {
	if len(ring) < 3 {
		return 0
	}
	var sum float64
	for i := range ring {
		j := (i + 1) % len(ring)
		sum += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}
