package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/okian/eventrec/internal/domain/geo"
	"github.com/okian/eventrec/internal/domain/model"
)

const (
	// proximityRangeKm is the distance at which proximity reaches 0.
	proximityRangeKm = 100
	// travelRadiusMiles is proximityRangeKm expressed in miles.
	travelRadiusMiles = proximityRangeKm / geo.KmPerMile
	virtualProximity = 0.6
	unknownVenue     = 0.3
	regionalMissing  = 0.3
)

// IsDiasporaLocation implements collab.Geography. Unknown locations are not
// diaspora locations.
func (s *Store) IsDiasporaLocation(ctx context.Context, location string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l, _ := s.location(location)
	return l.Diaspora, nil
}

// CommunityDensity implements collab.Geography. Unknown locations have no
// community.
func (s *Store) CommunityDensity(ctx context.Context, location string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l, _ := s.location(location)
	return l.Density, nil
}

// AnalyzeCommunityClusters implements collab.Geography. Every cataloged
// venue of the events with a community forms a cluster, densest first.
func (s *Store) AnalyzeCommunityClusters(ctx context.Context, _ string, events []model.Event) ([]model.CommunityCluster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []model.CommunityCluster
	for _, ev := range events {
		for _, name := range ev.AllLocations() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			l, ok := s.location(name)
			if !ok || l.Density == 0 {
				continue
			}
			out = append(out, model.CommunityCluster{Location: name, Density: l.Density, Size: l.Members})
		}
	}
	slices.SortStableFunc(out, func(a, b model.CommunityCluster) int {
		return cmp.Or(cmp.Compare(b.Density, a.Density), strings.Compare(a.Location, b.Location))
	})
	return out, nil
}

// Distance implements collab.Geography with the Haversine formula.
func (s *Store) Distance(ctx context.Context, from, to geo.Point) (model.Distance, error) {
	if err := ctx.Err(); err != nil {
		return model.Distance{}, err
	}
	return model.Distance{Value: geo.Distance(from, to), Unit: model.Kilometers}, nil
}

// RegionalPreferences implements collab.Geography. Unknown locations have
// no preferred categories.
func (s *Store) RegionalPreferences(ctx context.Context, location string) (model.RegionalPreferences, error) {
	if err := ctx.Err(); err != nil {
		return model.RegionalPreferences{}, err
	}
	l, ok := s.location(location)
	if !ok {
		return model.RegionalPreferences{Region: location}, nil
	}
	region := l.Region
	if region == "" {
		region = l.Name
	}
	prefs := model.RegionalPreferences{Region: region, PreferredCategories: make(map[string]float64, len(l.Categories))}
	for c, v := range l.Categories {
		prefs.PreferredCategories[key(c)] = v
	}
	return prefs, nil
}

// RegionalMatch implements collab.Geography.
func (s *Store) RegionalMatch(ctx context.Context, ev model.Event, prefs model.RegionalPreferences) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(prefs.PreferredCategories) == 0 {
		return neutral, nil
	}
	if v, ok := prefs.PreferredCategories[key(ev.Category)]; ok {
		return clamp01(v), nil
	}
	return regionalMissing, nil
}

// TransportationAccessibility implements collab.Geography. The best of the
// user's modes counts; a venue without parking caps users who need it.
func (s *Store) TransportationAccessibility(ctx context.Context, ev model.Event, prefs model.TransportationPreferences) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l, ok := s.location(ev.Location)
	if !ok || len(prefs.Modes) == 0 {
		return neutral, nil
	}
	best := 0.0
	for _, mode := range prefs.Modes {
		var v float64
		switch key(mode) {
		case "car", "drive":
			v = 0.4
			if l.Parking {
				v = 0.9
			}
		case "transit", "bus", "train":
			v = l.Transit
		case "walk", "bike":
			v = 0.3 + 0.5*l.Density
		default:
			v = neutral
		}
		best = max(best, v)
	}
	if prefs.NeedsParking && !l.Parking {
		best = min(best, unknownVenue)
	}
	return clamp01(best), nil
}

// MultiLocationProximity implements collab.Geography. Venues missing from
// the catalog are unknown, as are all venues when the user's location is.
func (s *Store) MultiLocationProximity(ctx context.Context, userLocation string, venues []string) (model.MultiLocationProximity, error) {
	if err := ctx.Err(); err != nil {
		return model.MultiLocationProximity{}, err
	}
	out := model.MultiLocationProximity{UserLocation: userLocation}
	home, homeOK := s.location(userLocation)
	for _, v := range venues {
		l, ok := s.location(v)
		d := model.LocationDistance{Location: v, Known: ok && homeOK}
		if d.Known {
			d.Km = geo.Distance(home.Point, l.Point)
		}
		out.Venues = append(out.Venues, d)
	}
	return out, nil
}

// ProximityScore implements collab.Geography: 1 at the nearest venue,
// falling linearly to 0 at 100 km. Without a known venue it is neutral.
func (s *Store) ProximityScore(ctx context.Context, p model.MultiLocationProximity) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	nearest, ok := p.Nearest()
	if !ok {
		return neutral, nil
	}
	return proximity(nearest.Km), nil
}

func proximity(km float64) float64 {
	return clamp01(1 - km/proximityRangeKm)
}

// HandleLocationEdgeCase implements collab.Geography.
func (s *Store) HandleLocationEdgeCase(ctx context.Context, userLocation string, ev model.Event) (model.LocationEdgeCase, error) {
	if err := ctx.Err(); err != nil {
		return model.LocationEdgeCase{}, err
	}
	home, homeOK := s.location(userLocation)
	switch l, known := s.location(ev.Location); {
	case ev.HasTag("online") || key(ev.Location) == "online":
		return model.LocationEdgeCase{CanRecommend: true, ProximityScore: virtualProximity, Reason: "virtual event"}, nil
	case !ev.HasLocation() && ev.Coordinates == nil:
		return model.LocationEdgeCase{Reason: "no venue"}, nil
	case known && homeOK:
		return fromHome(home.Point, l.Point, "known venue"), nil
	case known:
		return model.LocationEdgeCase{CanRecommend: true, ProximityScore: neutral, Reason: "known venue"}, nil
	case ev.Coordinates != nil && homeOK:
		return fromHome(home.Point, *ev.Coordinates, "distance from coordinates"), nil
	default:
		return model.LocationEdgeCase{CanRecommend: true, ProximityScore: unknownVenue, Reason: "unrecognized venue"}, nil
	}
}

// fromHome scores venue by its distance from home. Venues outside the travel
// radius stay recommendable with zero proximity.
func fromHome(home, venue geo.Point, reason string) model.LocationEdgeCase {
	if !geo.WithinRadius(home, venue, travelRadiusMiles) {
		return model.LocationEdgeCase{CanRecommend: true, Reason: reason + " beyond travel radius"}
	}
	return model.LocationEdgeCase{CanRecommend: true, ProximityScore: proximity(geo.Distance(home, venue)), Reason: reason}
}
