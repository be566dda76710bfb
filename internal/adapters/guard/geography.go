package guard

import (
	"context"

	"github.com/okian/eventrec/internal/domain/collab"
	"github.com/okian/eventrec/internal/domain/geo"
	"github.com/okian/eventrec/internal/domain/model"
)

var _ collab.Geography = (*Geography)(nil)

// Geography guards a collab.Geography.
type Geography struct {
	inner collab.Geography
	g     *guard
}

// NewGeography wraps inner.
func NewGeography(inner collab.Geography, opts ...Option) *Geography {
	return &Geography{inner: inner, g: newGuard("geography", opts)}
}

// Name identifies the guarded collaborator.
func (s *Geography) Name() string { return s.g.name }

// State returns the circuit state: closed, half-open or open.
func (s *Geography) State() string { return s.g.state() }

func (s *Geography) IsDiasporaLocation(ctx context.Context, location string) (bool, error) {
	return call(ctx, s.g, "IsDiasporaLocation", func(ctx context.Context) (bool, error) {
		return s.inner.IsDiasporaLocation(ctx, location)
	})
}

func (s *Geography) CommunityDensity(ctx context.Context, location string) (float64, error) {
	return call(ctx, s.g, "CommunityDensity", func(ctx context.Context) (float64, error) {
		return s.inner.CommunityDensity(ctx, location)
	})
}

func (s *Geography) AnalyzeCommunityClusters(ctx context.Context, userLocation string, events []model.Event) ([]model.CommunityCluster, error) {
	return call(ctx, s.g, "AnalyzeCommunityClusters", func(ctx context.Context) ([]model.CommunityCluster, error) {
		return s.inner.AnalyzeCommunityClusters(ctx, userLocation, events)
	})
}

func (s *Geography) Distance(ctx context.Context, from, to geo.Point) (model.Distance, error) {
	return call(ctx, s.g, "Distance", func(ctx context.Context) (model.Distance, error) {
		return s.inner.Distance(ctx, from, to)
	})
}

func (s *Geography) RegionalPreferences(ctx context.Context, location string) (model.RegionalPreferences, error) {
	return call(ctx, s.g, "RegionalPreferences", func(ctx context.Context) (model.RegionalPreferences, error) {
		return s.inner.RegionalPreferences(ctx, location)
	})
}

func (s *Geography) RegionalMatch(ctx context.Context, ev model.Event, prefs model.RegionalPreferences) (float64, error) {
	return call(ctx, s.g, "RegionalMatch", func(ctx context.Context) (float64, error) {
		return s.inner.RegionalMatch(ctx, ev, prefs)
	})
}

func (s *Geography) TransportationAccessibility(ctx context.Context, ev model.Event, prefs model.TransportationPreferences) (float64, error) {
	return call(ctx, s.g, "TransportationAccessibility", func(ctx context.Context) (float64, error) {
		return s.inner.TransportationAccessibility(ctx, ev, prefs)
	})
}

func (s *Geography) MultiLocationProximity(ctx context.Context, userLocation string, eventLocations []string) (model.MultiLocationProximity, error) {
	return call(ctx, s.g, "MultiLocationProximity", func(ctx context.Context) (model.MultiLocationProximity, error) {
		return s.inner.MultiLocationProximity(ctx, userLocation, eventLocations)
	})
}

func (s *Geography) ProximityScore(ctx context.Context, proximity model.MultiLocationProximity) (float64, error) {
	return call(ctx, s.g, "ProximityScore", func(ctx context.Context) (float64, error) {
		return s.inner.ProximityScore(ctx, proximity)
	})
}

func (s *Geography) HandleLocationEdgeCase(ctx context.Context, userLocation string, ev model.Event) (model.LocationEdgeCase, error) {
	return call(ctx, s.g, "HandleLocationEdgeCase", func(ctx context.Context) (model.LocationEdgeCase, error) {
		return s.inner.HandleLocationEdgeCase(ctx, userLocation, ev)
	})
}
