// Package city maps coordinates to cataloged city boundaries and
// resolves city names for baseline selection.
package city

import (
	"os"
	"strings"
	"unicode"

	"github.com/dhconnelly/rtreego"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/site-scout/internal/model"
)

const (
	treeDimensions  = 2
	treeMinChildren = 2
	treeMaxChildren = 8
)

// City is one catalog entry: a stable ID, a display name, and a single
// boundary ring of [lon, lat] pairs.
type City struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Boundary [][]float64 `yaml:"boundary"`
}

type catalogFile struct {
	Cities []City `yaml:"cities"`
}

// indexedCity carries the precomputed flat ring and bounding rect for
// one city. Declaration order is preserved for tie-breaking.
type indexedCity struct {
	city  City
	order int
	ring  []float64 // flat lon,lat pairs, closed
	rect  rtreego.Rect
}

func (ic *indexedCity) Bounds() rtreego.Rect {
	return ic.rect
}

// Catalog resolves coordinates and names to cities. Immutable after
// construction; safe for concurrent use.
type Catalog struct {
	cities []*indexedCity
	tree   *rtreego.Rtree
	byName map[string]*indexedCity
}

// LoadCatalog reads a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "city: read catalog %s", path)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "city: parse catalog %s", path)
	}
	return NewCatalog(f.Cities)
}

// NewCatalog builds a catalog from city entries. Boundaries must be
// rings of at least three distinct points; the ring is closed
// automatically when the file omits the repeat of the first point.
func NewCatalog(cities []City) (*Catalog, error) {
	c := &Catalog{
		tree:   rtreego.NewTree(treeDimensions, treeMinChildren, treeMaxChildren),
		byName: make(map[string]*indexedCity, len(cities)),
	}

	for i, city := range cities {
		if city.ID == "" {
			return nil, eris.Errorf("city: catalog entry %d has no id", i)
		}
		if len(city.Boundary) < 3 {
			return nil, eris.Errorf("city: %s boundary needs at least 3 points, got %d", city.ID, len(city.Boundary))
		}

		ring, rect, err := buildRing(city.Boundary)
		if err != nil {
			return nil, eris.Wrapf(err, "city: %s", city.ID)
		}

		ic := &indexedCity{city: city, order: i, ring: ring, rect: rect}
		c.cities = append(c.cities, ic)
		c.tree.Insert(ic)
		c.byName[foldName(city.ID)] = ic
		if city.Name != "" {
			c.byName[foldName(city.Name)] = ic
		}
	}

	return c, nil
}

func buildRing(boundary [][]float64) ([]float64, rtreego.Rect, error) {
	ring := make([]float64, 0, (len(boundary)+1)*2)
	minLon, minLat := boundary[0][0], boundary[0][1]
	maxLon, maxLat := minLon, minLat

	for i, pt := range boundary {
		if len(pt) != 2 {
			return nil, rtreego.Rect{}, eris.Errorf("boundary point %d: want [lon, lat] pair", i)
		}
		lon, lat := pt[0], pt[1]
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, rtreego.Rect{}, eris.Errorf("boundary point %d: out of range", i)
		}
		ring = append(ring, lon, lat)
		minLon, maxLon = min(minLon, lon), max(maxLon, lon)
		minLat, maxLat = min(minLat, lat), max(maxLat, lat)
	}

	// close the ring
	if ring[0] != ring[len(ring)-2] || ring[1] != ring[len(ring)-1] {
		ring = append(ring, ring[0], ring[1])
	}

	rect, err := rtreego.NewRect(
		rtreego.Point{minLat, minLon},
		[]float64{maxLat - minLat, maxLon - minLon},
	)
	if err != nil {
		return nil, rtreego.Rect{}, eris.Wrap(err, "bounding rect")
	}
	return ring, rect, nil
}

// Resolve returns the ID of the first cataloged city, in declaration
// order, whose boundary contains the coordinate. Coordinates outside
// every boundary resolve to model.UnknownCity.
func (c *Catalog) Resolve(coord model.Coordinate) string {
	point := rtreego.Point{coord.Lat, coord.Lon}
	candidates := c.tree.SearchIntersect(point.ToRect(1e-9))
	if len(candidates) == 0 {
		return model.UnknownCity
	}

	best := (*indexedCity)(nil)
	for _, s := range candidates {
		ic, ok := s.(*indexedCity)
		if !ok {
			continue
		}
		if best != nil && ic.order >= best.order {
			continue
		}
		if xy.IsPointInRing(geom.XY, geom.Coord{coord.Lon, coord.Lat}, ic.ring) {
			best = ic
		}
	}
	if best == nil {
		return model.UnknownCity
	}
	return best.city.ID
}

// Lookup finds a city by ID or display name. Matching is
// case-insensitive and accent-insensitive, so "Orléans", "orleans" and
// "ORLEANS" all hit the same entry.
func (c *Catalog) Lookup(name string) (City, bool) {
	ic, ok := c.byName[foldName(name)]
	if !ok {
		return City{}, false
	}
	return ic.city, true
}

// Cities returns the catalog entries in declaration order.
func (c *Catalog) Cities() []City {
	out := make([]City, len(c.cities))
	for i, ic := range c.cities {
		out[i] = ic.city
	}
	return out
}

var nameFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldName(name string) string {
	folded, _, err := transform.String(nameFolder, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(name))
	}
	return folded
}
