package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/shift-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/shift-payroll-engine/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

// ValidateStart checks a check-in against the employee's current active shift
// and the location policy. It has no side effects.
func ValidateStart(active *attendance.ActiveShift, ts time.Time, location *string, policy attendance.LocationPolicy) error {
	if active != nil {
		return attendance.ErrAlreadyActive
	}

	if location == nil || *location == "" {
		if policy.Required {
			return fmt.Errorf("%w: location is required", attendance.ErrInvalidLocation)
		}
		return nil
	}

	lat, lng, err := utils.ParseCoordinates(*location)
	if err != nil {
		return fmt.Errorf("%w: %w", attendance.ErrInvalidLocation, err)
	}

	if len(policy.Sites) == 0 {
		return nil
	}
	for _, site := range policy.Sites {
		distanceMeters := utils.CalculateHaversineDistance(lat, lng, site.Latitude, site.Longitude)
		if distanceMeters <= site.RadiusMeters {
			return nil
		}
	}
	return fmt.Errorf("%w: outside every allowed site", attendance.ErrInvalidLocation)
}

// ValidateEnd returns the shift a check-out at ts would close.
func ValidateEnd(active *attendance.ActiveShift, ts time.Time) (attendance.ActiveShift, error) {
	if active == nil {
		return attendance.ActiveShift{}, attendance.ErrNoActiveShift
	}
	if ts.Before(active.CheckIn) {
		return attendance.ActiveShift{}, attendance.ErrClockSkew
	}
	return *active, nil
}

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

// ComputeTotalHours returns the elapsed hours between checkIn and checkOut,
// rounded half-up to two decimals, and the status that duration earns.
func ComputeTotalHours(checkIn, checkOut time.Time) (decimal.Decimal, attendance.Status) {
	elapsed := decimal.NewFromInt(int64(checkOut.Sub(checkIn)))
	hours := elapsed.Div(nanosPerHour).Round(2)
	if hours.IsPositive() {
		return hours, attendance.StatusPresent
	}
	return decimal.Zero, attendance.StatusIncomplete
}
