// FilePath: internal/daylight/daylight.go

// Package daylight decides whether a given hour counts as daytime for a
// resource, which drives the choice between DefaultDay and DefaultNight
// placeholder movies. The astronomical sunrise/sunset computation itself is
// an external collaborator behind the Calculator interface.
package daylight

import (
	"time"

	"github.com/skyfield/archivehub/internal/models"
)

// Calculator computes sunrise and sunset instants for the day containing t,
// in t's location. Implementations live outside this module.
type Calculator interface {
	Sunrise(t time.Time) time.Time
	Sunset(t time.Time) time.Time
}

// Advisor answers daytime questions for resources.
type Advisor struct {
	calc Calculator
}

// NewAdvisor builds an Advisor around an external calculator.
func NewAdvisor(calc Calculator) *Advisor {
	return &Advisor{calc: calc}
}

// IsDaytimeHour reports whether a resource should show its daytime
// placeholder for the hour containing t. Full-time resources use the
// astronomical calculator; all other resources use their declared
// collection hours.
func (a *Advisor) IsDaytimeHour(resource *models.Resource, t time.Time) bool {
	local := t.In(resource.Location())

	if resource.Span == models.SpanFullTime {
		return local.After(a.calc.Sunrise(local)) && local.Before(a.calc.Sunset(local))
	}

	start, stop := a.CollectionHours(resource, local)
	hour := local.Hour()
	return hour >= start && hour <= stop
}

// CollectionHours returns the inclusive [start, stop] hour-of-day window in
// which the resource is expected to collect data on the day containing t.
func (a *Advisor) CollectionHours(resource *models.Resource, t time.Time) (int, int) {
	local := t.In(resource.Location())

	switch resource.Span {
	case models.SpanFullTime:
		return 0, 23
	case models.SpanSpecifiedTimes:
		return resource.SpanStartHour, resource.SpanStopHour
	default: // daylight hours
		sunrise := a.calc.Sunrise(local)
		sunset := a.calc.Sunset(local)
		start := 0
		if !sunrise.IsZero() {
			start = sunrise.In(resource.Location()).Hour()
		}
		stop := 23
		if !sunset.IsZero() {
			stop = sunset.In(resource.Location()).Hour()
		}
		return start, stop
	}
}

// FixedCalculator returns the same sunrise/sunset hours for every day. It
// stands in for the external astronomical calculator in tests and in
// deployments without one.
type FixedCalculator struct {
	SunriseHour int
	SunsetHour  int
}

func (c FixedCalculator) Sunrise(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.SunriseHour, 0, 0, 0, t.Location())
}

func (c FixedCalculator) Sunset(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.SunsetHour, 0, 0, 0, t.Location())
}
