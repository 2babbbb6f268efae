package indexer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const earthRadiusKm = 6371.0

// Place is a named point in a gazetteer.
type Place struct {
	Name string
	Lat  float64
	Lon  float64
}

// Gazetteer resolves coordinates to the nearest known place name.
type Gazetteer struct {
	places []Place
	// MaxDistanceKm bounds how far a point may be from a place to take
	// its name.
	MaxDistanceKm float64
}

// NewGazetteer returns a gazetteer over places.
func NewGazetteer(places []Place, maxDistanceKm float64) *Gazetteer {
	return &Gazetteer{places: places, MaxDistanceKm: maxDistanceKm}
}

// LoadPlaces reads a CSV gazetteer with rows of name,latitude,longitude.
// A header row and '#' comment lines are ignored.
func LoadPlaces(path string, maxDistanceKm float64) (*Gazetteer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open places file: %w", err)
	}
	defer f.Close()

	places, err := readPlaces(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read places file %s: %w", path, err)
	}
	return NewGazetteer(places, maxDistanceKm), nil
}

func readPlaces(r io.Reader) ([]Place, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	var places []Place
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return places, nil
		}
		if err != nil {
			return nil, err
		}

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if latErr != nil || lonErr != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("line %d: invalid coordinates %q,%q", line, rec[1], rec[2])
		}
		places = append(places, Place{Name: strings.TrimSpace(rec[0]), Lat: lat, Lon: lon})
	}
}

// Nearest returns the name of the closest place within MaxDistanceKm.
func (g *Gazetteer) Nearest(lat, lon float64) (string, bool) {
	if g == nil {
		return "", false
	}
	best, bestDist := "", math.Inf(1)
	for _, p := range g.places {
		if d := distanceKm(lat, lon, p.Lat, p.Lon); d < bestDist {
			best, bestDist = p.Name, d
		}
	}
	if best == "" || (g.MaxDistanceKm > 0 && bestDist > g.MaxDistanceKm) {
		return "", false
	}
	return best, true
}

// Len returns the number of known places.
func (g *Gazetteer) Len() int {
	if g == nil {
		return 0
	}
	return len(g.places)
}

// distanceKm is the great-circle distance between two points.
func distanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
