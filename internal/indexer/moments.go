package indexer

import (
	"slices"
	"time"

	"media-library/internal/catalog"
)

// MomentConfig controls moment clustering.
type MomentConfig struct {
	// Gap is the longest pause between consecutive assets of one moment.
	Gap time.Duration
	// DistanceKm splits a moment when consecutive geotagged assets are
	// further apart; 0 disables the check.
	DistanceKm float64
	// Places names moment locations; nil leaves moments unplaced.
	Places *Gazetteer
}

// DefaultMomentConfig returns the clustering used when none is configured.
func DefaultMomentConfig() MomentConfig {
	return MomentConfig{Gap: 6 * time.Hour, DistanceKm: 50}
}

// momentPoint is the slice of an asset clustering needs.
type momentPoint struct {
	id       string
	taken    time.Time
	lat, lon *float64
}

// clusterMoments groups points by time (and distance when both sides are
// geotagged) into moments. Points may arrive in any order.
func clusterMoments(points []momentPoint, cfg MomentConfig) []catalog.Moment {
	if len(points) == 0 {
		return nil
	}
	points = slices.Clone(points)
	slices.SortStableFunc(points, func(a, b momentPoint) int {
		if c := a.taken.Compare(b.taken); c != 0 {
			return c
		}
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})

	var moments []catalog.Moment
	var current []momentPoint
	var lastGeo *momentPoint

	flush := func() {
		if len(current) > 0 {
			moments = append(moments, buildMoment(current, cfg.Places))
		}
		current, lastGeo = nil, nil
	}

	for i := range points {
		p := points[i]
		if len(current) > 0 {
			prev := current[len(current)-1]
			split := cfg.Gap > 0 && p.taken.Sub(prev.taken) > cfg.Gap
			if !split && cfg.DistanceKm > 0 && lastGeo != nil && p.lat != nil && p.lon != nil {
				split = distanceKm(*lastGeo.lat, *lastGeo.lon, *p.lat, *p.lon) > cfg.DistanceKm
			}
			if split {
				flush()
			}
		}
		current = append(current, p)
		if p.lat != nil && p.lon != nil {
			lastGeo = &points[i]
		}
	}
	flush()
	return moments
}

func buildMoment(points []momentPoint, places *Gazetteer) catalog.Moment {
	m := catalog.Moment{
		StartDate: points[0].taken,
		EndDate:   points[len(points)-1].taken,
		AssetIDs:  make([]string, len(points)),
	}

	seen := make(map[string]bool)
	for i, p := range points {
		m.AssetIDs[i] = p.id
		if p.lat == nil || p.lon == nil {
			continue
		}
		if name, ok := places.Nearest(*p.lat, *p.lon); ok && !seen[name] {
			seen[name] = true
			m.Locations = append(m.Locations, name)
		}
	}

	m.Title = m.StartDate.Format("January 2, 2006")
	if len(m.Locations) > 0 {
		m.Title = m.Locations[0]
	}
	return m
}
