package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrMalformedCoordinates = errors.New("coordinates must be \"lat,lng\" within valid ranges")

// CalculateHaversineDistance returns the distance between two points in meters.
func CalculateHaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000

	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// ParseCoordinates parses a "lat,lng" geocoordinate string.
func ParseCoordinates(s string) (lat, lng float64, err error) {
	latStr, lngStr, found := strings.Cut(s, ",")
	if !found {
		return 0, 0, ErrMalformedCoordinates
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil || math.IsNaN(lat) || lat < -90 || lat > 90 {
		return 0, 0, ErrMalformedCoordinates
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil || math.IsNaN(lng) || lng < -180 || lng > 180 {
		return 0, 0, ErrMalformedCoordinates
	}
	return lat, lng, nil
}
