package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/okian/eventrec/internal/domain/criteria"
	"github.com/okian/eventrec/internal/domain/model"
	"github.com/okian/eventrec/pkg/logger"
)

const (
	clusterDensityWeight   = 0.6
	clusterCommunityWeight = 0.4
	largeClusterSize       = 20
	largeCommunity         = 0.8
	smallCommunity         = 0.4
)

func (e *Engine) userLocation(ctx context.Context, user uuid.UUID) (model.UserLocation, error) {
	return lookup(ctx, e.logger, "user location", value(model.UserLocation{}))(e.prefs.UserLocation(ctx, user))
}

// GetClusterOptimizedRecommendations scores events by the community cluster
// at their location: density·0.6 + (size > 20 ? 0.8 : 0.4)·0.4.
func (e *Engine) GetClusterOptimizedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	var clusters []model.CommunityCluster
	p := &pipeline{variant: "cluster", sortBy: model.DimGeographic}
	p.before(func(ctx context.Context) (bool, error) {
		loc, err := e.userLocation(ctx, user)
		if err != nil {
			return false, err
		}
		clusters, err = lookup(ctx, e.logger, "community clusters", value[[]model.CommunityCluster](nil))(
			e.geography.AnalyzeCommunityClusters(ctx, loc.Name, events))
		return err == nil, err
	})
	p.score = func(_ context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		density, community := 0.0, smallCommunity
		for _, c := range clusters {
			if c.Location == ev.Location {
				density = c.Density
				if c.Size > largeClusterSize {
					community = largeCommunity
				}
				break
			}
		}
		v := density*clusterDensityWeight + community*clusterCommunityWeight
		reason := fmt.Sprintf("Cluster optimized (Density: %.2f, Community: %.2f)", density, community)
		return single(ev, model.DimGeographic, v, reason), true, nil
	}
	return e.run(ctx, p, events)
}

// GetDistanceFilteredRecommendations keeps events within the user's maximum
// travel distance and scores them 1 − distance/max. Events without
// coordinates are excluded; without a user position or limit the ranking is empty.
func (e *Engine) GetDistanceFilteredRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	var (
		limit model.Distance
		home  model.UserLocation
	)
	p := &pipeline{variant: "distance", sortBy: model.DimDistance}
	p.before(func(ctx context.Context) (bool, error) {
		var err error
		limit, err = e.prefs.MaxTravelDistance(ctx, user)
		if err != nil {
			return unavailable(ctx, e.logger, "max travel distance", err)
		}
		if home, err = e.prefs.UserLocation(ctx, user); err != nil {
			return unavailable(ctx, e.logger, "user location", err)
		}
		if home.Point == nil || limit.Km() <= 0 {
			e.logger.Warn(ctx, "distance filter needs a user position and a positive travel limit",
				logger.String("user", user.String()),
				logger.Bool("has_position", home.Point != nil),
				logger.Float64("limit_km", limit.Km()),
			)
			return false, nil
		}
		return true, nil
	})
	p.admit = func(_ context.Context, ev model.Event) (bool, error) {
		return ev.Coordinates != nil, nil
	}
	p.score = func(ctx context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		d, err := e.geography.Distance(ctx, *home.Point, *ev.Coordinates)
		if err != nil {
			ok, err := excluded(ctx, e.logger, ev, err)
			return model.EventRecommendation{}, ok, err
		}
		if d.Km() > limit.Km() {
			return model.EventRecommendation{}, false, nil
		}
		shown := d.In(limit.Unit)
		v := 1 - d.Km()/limit.Km()
		reason := fmt.Sprintf("Within travel distance (%.1f %s)", shown.Value, shown.Unit)
		return single(ev, model.DimDistance, v, reason), true, nil
	}
	return e.run(ctx, p, events)
}

// GetRegionalOptimizedRecommendations scores events by how well they match
// the preferences of the user's region.
func (e *Engine) GetRegionalOptimizedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	var (
		regional  model.RegionalPreferences
		available bool
	)
	p := &pipeline{variant: "regional", sortBy: model.DimRegional}
	p.before(func(ctx context.Context) (bool, error) {
		loc, err := e.userLocation(ctx, user)
		if err != nil {
			return false, err
		}
		regional, err = e.geography.RegionalPreferences(ctx, loc.Name)
		if err == nil {
			available = true
			return true, nil
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		e.logger.Warn(ctx, "regional preferences unavailable, scoring neutral", logger.Error(err))
		return true, nil
	})
	p.score = func(ctx context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		v := criteria.Neutral
		if available {
			var err error
			if v, err = orDefault(ctx, e.logger, "regional match", criteria.Neutral)(e.geography.RegionalMatch(ctx, ev, regional)); err != nil {
				return model.EventRecommendation{}, false, err
			}
		}
		return single(ev, model.DimRegional, v, fmt.Sprintf("Regional match (Score: %.2f)", v)), true, nil
	}
	return e.run(ctx, p, events)
}

// GetAccessibilityOptimizedRecommendations scores events by how reachable
// they are with the user's means of transport.
func (e *Engine) GetAccessibilityOptimizedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	var transport model.TransportationPreferences
	p := &pipeline{variant: "accessibility", sortBy: model.DimAccessibility}
	p.before(func(ctx context.Context) (bool, error) {
		var err error
		transport, err = lookup(ctx, e.logger, "transportation preferences", value(model.TransportationPreferences{}))(
			e.prefs.TransportationPreferences(ctx, user))
		return err == nil, err
	})
	p.score = func(ctx context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		v, err := orDefault(ctx, e.logger, "transportation accessibility", criteria.Neutral)(
			e.geography.TransportationAccessibility(ctx, ev, transport))
		if err != nil {
			return model.EventRecommendation{}, false, err
		}
		return single(ev, model.DimAccessibility, v, fmt.Sprintf("Accessibility optimized (Score: %.2f)", v)), true, nil
	}
	return e.run(ctx, p, events)
}

// GetProximityOptimizedRecommendations scores multi-venue events by the
// proximity of their venues to the user.
func (e *Engine) GetProximityOptimizedRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	var home model.UserLocation
	p := &pipeline{variant: "proximity", sortBy: model.DimProximity}
	p.before(func(ctx context.Context) (bool, error) {
		var err error
		home, err = e.userLocation(ctx, user)
		return err == nil, err
	})
	p.score = func(ctx context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		v, err := e.proximity(ctx, home.Name, ev)
		if err != nil {
			return model.EventRecommendation{}, false, err
		}
		return single(ev, model.DimProximity, v, fmt.Sprintf("Proximity optimized (Score: %.2f)", v)), true, nil
	}
	return e.run(ctx, p, events)
}

func (e *Engine) proximity(ctx context.Context, home string, ev model.Event) (float64, error) {
	venues, err := e.geography.MultiLocationProximity(ctx, home, ev.AllLocations())
	if err != nil {
		return orDefault(ctx, e.logger, "multi-location proximity", criteria.Neutral)(0, err)
	}
	return orDefault(ctx, e.logger, "proximity score", criteria.Neutral)(e.geography.ProximityScore(ctx, venues))
}

// GetLocationEdgeCaseRecommendations keeps events the geography service can
// still recommend despite an unusual location and scores them by its
// proximity estimate.
func (e *Engine) GetLocationEdgeCaseRecommendations(ctx context.Context, user uuid.UUID, events []model.Event) (model.Ranking, error) {
	var home model.UserLocation
	p := &pipeline{variant: "location_edge_case", sortBy: model.DimLocation}
	p.before(func(ctx context.Context) (bool, error) {
		var err error
		home, err = e.userLocation(ctx, user)
		return err == nil, err
	})
	p.score = func(ctx context.Context, ev model.Event) (model.EventRecommendation, bool, error) {
		res, err := e.geography.HandleLocationEdgeCase(ctx, home.Name, ev)
		if err != nil {
			ok, err := excluded(ctx, e.logger, ev, err)
			return model.EventRecommendation{}, ok, err
		}
		if !res.CanRecommend {
			return model.EventRecommendation{}, false, nil
		}
		reason := "Edge case handled: " + res.Reason
		return single(ev, model.DimLocation, res.ProximityScore, reason), true, nil
	}
	return e.run(ctx, p, events)
}

// unavailable ends a variant with an empty ranking when a required lookup
// fails; cancellation is returned unchanged.
func unavailable(ctx context.Context, l logger.Logger, what string, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	l.Warn(ctx, "required lookup failed, returning no recommendations",
		logger.String("lookup", what),
		logger.Error(err),
	)
	return false, nil
}
