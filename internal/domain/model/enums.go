package model

import (
	"fmt"
	"strings"
)

// enumNames maps the zero-based values of an int enum to their names.
type enumNames []string

func (n enumNames) name(v int) string {
	if v < 0 || v >= len(n) {
		return fmt.Sprintf("Unknown(%d)", v)
	}
	return n[v]
}

func (n enumNames) parse(kind, s string) (int, error) {
	s = strings.TrimSpace(s)
	for i, name := range n {
		if strings.EqualFold(name, s) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

// SensitivityLevel is the user's strictness about cultural appropriateness.
type SensitivityLevel int

// Sensitivity levels. Unset admits everything.
const (
	SensitivityUnset SensitivityLevel = iota
	SensitivityLow
	SensitivityMedium
	SensitivityHigh
	SensitivityVeryHigh
)

var sensitivityNames = enumNames{"Unset", "Low", "Medium", "High", "VeryHigh"}

func (l SensitivityLevel) String() string { return sensitivityNames.name(int(l)) }

// MarshalText implements encoding.TextMarshaler.
func (l SensitivityLevel) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *SensitivityLevel) UnmarshalText(b []byte) error {
	v, err := sensitivityNames.parse("sensitivity level", string(b))
	*l = SensitivityLevel(v)
	return err
}

// AdaptationLevel is the user's openness to events outside dense diaspora hubs.
type AdaptationLevel int

// Adaptation levels, from strictest to most open.
const (
	AdaptationTraditional AdaptationLevel = iota
	AdaptationConservative
	AdaptationModerate
	AdaptationAdaptive
	AdaptationFullyIntegrated
)

var adaptationNames = enumNames{"Traditional", "Conservative", "Moderate", "Adaptive", "FullyIntegrated"}

func (l AdaptationLevel) String() string { return adaptationNames.name(int(l)) }

// MarshalText implements encoding.TextMarshaler.
func (l AdaptationLevel) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *AdaptationLevel) UnmarshalText(b []byte) error {
	v, err := adaptationNames.parse("adaptation level", string(b))
	*l = AdaptationLevel(v)
	return err
}

// EventNature is the calendar's classification of an event.
type EventNature int

// Event natures.
const (
	NatureUnknown EventNature = iota
	NatureReligious
	NatureCultural
	NatureSecular
	NatureMixed
)

var natureNames = enumNames{"Unknown", "Religious", "Cultural", "Secular", "Mixed"}

func (n EventNature) String() string { return natureNames.name(int(n)) }

// MarshalText implements encoding.TextMarshaler.
func (n EventNature) MarshalText() ([]byte, error) { return []byte(n.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *EventNature) UnmarshalText(b []byte) error {
	v, err := natureNames.parse("event nature", string(b))
	*n = EventNature(v)
	return err
}

// InteractionType classifies user feedback on an event.
type InteractionType int

// Interaction types.
const (
	InteractionView InteractionType = iota
	InteractionClick
	InteractionRegister
	InteractionAttend
	InteractionRate
	InteractionShare
	InteractionBookmark
	InteractionSkip
)

var interactionNames = enumNames{"View", "Click", "Register", "Attend", "Rate", "Share", "Bookmark", "Skip"}

func (t InteractionType) String() string { return interactionNames.name(int(t)) }

// MarshalText implements encoding.TextMarshaler.
func (t InteractionType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *InteractionType) UnmarshalText(b []byte) error {
	v, err := interactionNames.parse("interaction type", string(b))
	*t = InteractionType(v)
	return err
}

// InvolvementLevel describes how engaged a user is in the community.
type InvolvementLevel int

// Involvement levels.
const (
	InvolvementObserver InvolvementLevel = iota
	InvolvementCasual
	InvolvementRegular
	InvolvementActive
	InvolvementLeader
)

var involvementNames = enumNames{"Observer", "Casual", "Regular", "Active", "Leader"}

func (l InvolvementLevel) String() string { return involvementNames.name(int(l)) }

// MarshalText implements encoding.TextMarshaler.
func (l InvolvementLevel) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *InvolvementLevel) UnmarshalText(b []byte) error {
	v, err := involvementNames.parse("involvement level", string(b))
	*l = InvolvementLevel(v)
	return err
}

// CommitmentLevel is how much time a user can commit.
type CommitmentLevel int

// Commitment levels.
const (
	CommitmentLow CommitmentLevel = iota
	CommitmentMedium
	CommitmentHigh
	CommitmentVeryHigh
)

var commitmentNames = enumNames{"Low", "Medium", "High", "VeryHigh"}

func (l CommitmentLevel) String() string { return commitmentNames.name(int(l)) }

// MarshalText implements encoding.TextMarshaler.
func (l CommitmentLevel) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *CommitmentLevel) UnmarshalText(b []byte) error {
	v, err := commitmentNames.parse("commitment level", string(b))
	*l = CommitmentLevel(v)
	return err
}

// ConflictType is the kind of conflict a resolver found.
type ConflictType int

// Conflict types.
const (
	ConflictNone ConflictType = iota
	ConflictTimeOverlap
	ConflictCultural
	ConflictResource
	ConflictLocation
)

var conflictTypeNames = enumNames{"None", "TimeOverlap", "Cultural", "Resource", "Location"}

func (c ConflictType) String() string { return conflictTypeNames.name(int(c)) }

// MarshalText implements encoding.TextMarshaler.
func (c ConflictType) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// ConflictResolution is the outcome class of a resolved conflict.
type ConflictResolution int

// Conflict resolutions.
const (
	ResolutionAccepted ConflictResolution = iota
	ResolutionRejected
	ResolutionModified
	ResolutionDeferred
)

var resolutionNames = enumNames{"Accepted", "Rejected", "Modified", "Deferred"}

func (r ConflictResolution) String() string { return resolutionNames.name(int(r)) }

// MarshalText implements encoding.TextMarshaler.
func (r ConflictResolution) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// ClassifyResolution derives the outcome from resolver text by keyword.
// Text without a known keyword is Deferred.
func ClassifyResolution(text string) ConflictResolution {
	switch {
	case strings.Contains(text, "Accepted"):
		return ResolutionAccepted
	case strings.Contains(text, "Rejected"):
		return ResolutionRejected
	case strings.Contains(text, "Modified"):
		return ResolutionModified
	default:
		return ResolutionDeferred
	}
}

// TieBreaker is one criterion in a tie-breaking hierarchy.
type TieBreaker int

// Tie-breaking criteria.
const (
	TieBreakEventPriority TieBreaker = iota
	TieBreakEventDate
	TieBreakProximity
	TieBreakCapacity
	TieBreakPopularity
	TieBreakCreationDate
	TieBreakRandom
)

var tieBreakerNames = enumNames{"EventPriority", "EventDate", "Proximity", "Capacity", "Popularity", "CreationDate", "Random"}

func (t TieBreaker) String() string { return tieBreakerNames.name(int(t)) }

// MarshalText implements encoding.TextMarshaler.
func (t TieBreaker) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TieBreaker) UnmarshalText(b []byte) error {
	v, err := tieBreakerNames.parse("tie breaker", string(b))
	*t = TieBreaker(v)
	return err
}

// DistanceUnit is the unit of a Distance.
type DistanceUnit string

// Distance units.
const (
	Kilometers DistanceUnit = "km"
	Miles      DistanceUnit = "mi"
)
