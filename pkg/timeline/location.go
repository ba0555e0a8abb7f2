package timeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Location is a coordinate pair. Both fields are nil when nothing was found,
// which marshals as {"latitude": null, "longitude": null}.
type Location struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// NotFound returns the empty Location.
func NotFound() Location {
	return Location{}
}

// At returns a Location for the given coordinates.
func At(lat, lng float64) Location {
	return Location{Latitude: &lat, Longitude: &lng}
}

// Found reports whether both coordinates are set.
func (l Location) Found() bool {
	return l.Latitude != nil && l.Longitude != nil
}

func (l Location) String() string {
	if !l.Found() {
		return "not found"
	}
	return fmt.Sprintf("%.6f,%.6f", *l.Latitude, *l.Longitude)
}

// Paths of the coordinates surfaced for each record kind. Activities only
// report where they started.
const (
	visitLocationPath    = "visit.topCandidate.placeLocation"
	activityLocationPath = "activity.start"
)

// LocationFromRecord extracts the representative location of a record.
func LocationFromRecord(rec Record) Location {
	switch rec.Kind {
	case KindVisit:
		return parseCoordinates(gjson.GetBytes(rec.Raw, visitLocationPath))
	case KindActivity:
		return parseCoordinates(gjson.GetBytes(rec.Raw, activityLocationPath))
	default:
		return NotFound()
	}
}

// parseCoordinates accepts "geo:lat,lng" URIs, "lat°, lng°" strings,
// {latitude, longitude}, {latitudeE7, longitudeE7} and {latLng: "..."}.
func parseCoordinates(v gjson.Result) Location {
	switch {
	case v.Type == gjson.String:
		return parsePair(v.String())
	case v.IsObject():
		lat, lng := v.Get("latitude"), v.Get("longitude")
		if lat.Type == gjson.Number && lng.Type == gjson.Number {
			return At(lat.Float(), lng.Float())
		}
		lat, lng = v.Get("latitudeE7"), v.Get("longitudeE7")
		if lat.Type == gjson.Number && lng.Type == gjson.Number {
			return At(lat.Float()/1e7, lng.Float()/1e7)
		}
		if ll := v.Get("latLng"); ll.Type == gjson.String {
			return parsePair(ll.String())
		}
	}
	return NotFound()
}

func parsePair(s string) Location {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "geo:")
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "°", "")

	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return NotFound()
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return NotFound()
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return NotFound()
	}
	return At(lat, lng)
}
