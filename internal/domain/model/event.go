// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/eventrec/internal/domain/geo"
)

// Audience describes who an event is aimed at.
type Audience string

// Known audiences.
const (
	AudienceAll    Audience = "all"
	AudienceFamily Audience = "family"
	AudienceAdults Audience = "adults"
	AudienceYouth  Audience = "youth"
	AudienceSenior Audience = "senior"
)

// Event is a candidate community event. The engine never mutates it.
type Event struct {
	ID          uuid.UUID  `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Category    string     `json:"category" yaml:"category"`
	Location    string     `json:"location,omitempty" yaml:"location"`
	Coordinates *geo.Point `json:"coordinates,omitempty" yaml:"coordinates"`
	// Locations lists additional venues of a multi-location event.
	Locations []string  `json:"locations,omitempty" yaml:"locations"`
	StartDate time.Time `json:"start_date" yaml:"start_date"`
	EndDate   time.Time `json:"end_date" yaml:"end_date"`
	Language  string    `json:"language,omitempty" yaml:"language"`
	Audience  Audience  `json:"audience,omitempty" yaml:"audience"`
	Tags      []string  `json:"tags,omitempty" yaml:"tags"`
}

// HasLocation reports whether the event has a resolvable location name.
func (e Event) HasLocation() bool {
	return strings.TrimSpace(e.Location) != ""
}

// AllLocations returns the primary location followed by any additional
// venues, without blanks or duplicates.
func (e Event) AllLocations() []string {
	out := make([]string, 0, 1+len(e.Locations))
	seen := make(map[string]struct{}, 1+len(e.Locations))
	for _, loc := range append([]string{e.Location}, e.Locations...) {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		if _, ok := seen[loc]; ok {
			continue
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}
	return out
}

// HasTag reports whether the event carries tag, case-insensitively.
func (e Event) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
