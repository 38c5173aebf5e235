package domain

import (
	"encoding/json"
	"fmt"
)

// Geopoint is a latitude/longitude pair. Clients that cannot determine
// their location send both fields as empty strings; that form is stored
// as Unknown=true with zero coordinates.
type Geopoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Unknown   bool    `json:"-"`
}

// geopointWire mirrors the request shape, where latitude/longitude may be
// either numbers or empty strings.
type geopointWire struct {
	Latitude  json.RawMessage `json:"latitude"`
	Longitude json.RawMessage `json:"longitude"`
}

// UnmarshalJSON accepts both the numeric and the empty-string forms.
// It does not range-check coordinates; that is the validation layer's job.
func (g *Geopoint) UnmarshalJSON(data []byte) error {
	var wire geopointWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	if wire.Latitude == nil || wire.Longitude == nil {
		return fmt.Errorf("geopoint: latitude and longitude are required")
	}

	if string(wire.Latitude) == `""` && string(wire.Longitude) == `""` {
		*g = Geopoint{Unknown: true}
		return nil
	}

	var lat, lng float64
	if err := json.Unmarshal(wire.Latitude, &lat); err != nil {
		return fmt.Errorf("geopoint: latitude: %w", err)
	}
	if err := json.Unmarshal(wire.Longitude, &lng); err != nil {
		return fmt.Errorf("geopoint: longitude: %w", err)
	}

	*g = Geopoint{Latitude: lat, Longitude: lng}
	return nil
}

// MarshalJSON emits the empty-string form for unknown locations so clients
// round-trip what they sent.
func (g Geopoint) MarshalJSON() ([]byte, error) {
	if g.Unknown {
		return []byte(`{"latitude":"","longitude":""}`), nil
	}
	return json.Marshal(struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}{g.Latitude, g.Longitude})
}

// InRange reports whether the coordinates are inside the valid
// latitude/longitude ranges. Unknown locations are always in range.
func (g Geopoint) InRange() bool {
	if g.Unknown {
		return true
	}
	return g.Latitude >= -90 && g.Latitude <= 90 &&
		g.Longitude >= -180 && g.Longitude <= 180
}
