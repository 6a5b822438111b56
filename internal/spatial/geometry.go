package spatial

import (
	"hash/fnv"
	"math"

	"github.com/golang/geo/s2"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// France is the default map centre
var France = Point{Lat: 46.2276, Lon: 2.2137}

// LatLng converts the point to an s2 coordinate
func (p Point) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lon)
}

// IsZero reports whether the point is unset
func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lon == 0
}

// View is the part of the map a set of markers occupies
type View struct {
	Centre Point   `json:"centre"`
	South  float64 `json:"south"`
	West   float64 `json:"west"`
	North  float64 `json:"north"`
	East   float64 `json:"east"`
	Zoom   int     `json:"zoom"`
}

// ViewOf computes the bounding rectangle of points, its centre and a web map
// zoom level fitting its diagonal. Without points the view is metropolitan France.
func ViewOf(points []Point) View {
	if len(points) == 0 {
		return View{Centre: France, South: 41.3, West: -5.2, North: 51.1, East: 9.6, Zoom: 6}
	}

	bounder := s2.NewRectBounder()
	for _, p := range points {
		bounder.AddPoint(s2.PointFromLatLng(p.LatLng()))
	}
	rect := bounder.RectBound()
	centre := rect.Center()

	lo, hi := rect.Lo(), rect.Hi()
	diagonal := HaversineDistance(lo.Lat.Degrees(), lo.Lng.Degrees(), hi.Lat.Degrees(), hi.Lng.Degrees())

	return View{
		Centre: Point{Lat: centre.Lat.Degrees(), Lon: centre.Lng.Degrees()},
		South:  lo.Lat.Degrees(),
		West:   lo.Lng.Degrees(),
		North:  hi.Lat.Degrees(),
		East:   hi.Lng.Degrees(),
		Zoom:   zoomFor(diagonal),
	}
}

// zoomFor picks the web mercator zoom whose viewport roughly spans distance meters
func zoomFor(distance float64) int {
	if distance <= 0 {
		return 12
	}
	// viewport about four tiles wide
	zoom := int(math.Floor(math.Log2(4 * 2 * math.Pi * EarthRadiusMeters / distance)))
	if zoom < 2 {
		return 2
	}
	if zoom > 12 {
		return 12
	}
	return zoom
}

// Spread places a marker for key around centre, at most radius meters away.
// The same key always lands on the same spot, so markers of communes sharing a
// department centre do not overlap.
func Spread(centre Point, key string, radius float64) Point {
	h := fnv.New32a()
	h.Write([]byte(key))
	sum := h.Sum32()

	bearing := float64(sum%360) + float64(sum>>24)/256
	distance := radius * math.Sqrt(float64((sum>>9)%1000)/1000)

	lat, lon := DestinationPoint(centre.Lat, centre.Lon, bearing, distance)
	return Point{Lat: lat, Lon: lon}
}
