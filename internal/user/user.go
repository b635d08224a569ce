// Package user defines the canonical user and location shapes used across
// the client. Users are only ever constructed by normalizing API payloads,
// never assembled ad hoc.
package user

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoUser is returned when a payload contains no recognizable user object.
var ErrNoUser = errors.New("payload contains no user")

// GeoPoint is a GeoJSON Point: coordinates are [lng, lat].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Location is a locality/area/country triple, optionally enriched
// server-side with a country code and a geocoded point.
type Location struct {
	ID          string    `json:"_id,omitempty"`
	Locality    string    `json:"locality"`
	Area        string    `json:"area"`
	Country     string    `json:"country"`
	CountryCode string    `json:"country_code,omitempty"`
	Point       *GeoPoint `json:"point,omitempty"`
}

// FormLocation is the editable locality/area/country triple held by forms.
// A form location is either fully specified or fully absent; partial input
// is a validation error.
type FormLocation struct {
	Locality string `json:"locality"`
	Area     string `json:"area"`
	Country  string `json:"country"`
}

// Empty reports whether no location field is set.
func (l FormLocation) Empty() bool {
	return l.Locality == "" && l.Area == "" && l.Country == ""
}

// Complete reports whether every location field is set.
func (l FormLocation) Complete() bool {
	return l.Locality != "" && l.Area != "" && l.Country != ""
}

// Trimmed returns a copy with surrounding whitespace removed from each field.
func (l FormLocation) Trimmed() FormLocation {
	return FormLocation{
		Locality: strings.TrimSpace(l.Locality),
		Area:     strings.TrimSpace(l.Area),
		Country:  strings.TrimSpace(l.Country),
	}
}

// User is the canonical signed-in identity plus profile attributes.
type User struct {
	ID                string    `json:"_id"`
	FullName          string    `json:"fullname"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Bio               string    `json:"bio,omitempty"`
	ProfilePic        string    `json:"profilePic,omitempty"`
	Favs              []string  `json:"favs,omitempty"`
	DefaultLocationID string    `json:"defaultLocationId,omitempty"`
	DefaultLocation   *Location `json:"defaultLocation,omitempty"`
	CreatedAt         string    `json:"createdAt,omitempty"`
	UpdatedAt         string    `json:"updatedAt,omitempty"`
}

// wrapped matches responses that nest the user inside a wrapper object.
type wrapped struct {
	User *User `json:"user"`
}

// Normalize extracts the canonical user from a raw API payload. The server
// may return either the user object itself or a wrapper containing it under
// a "user" key; both shapes decode to the same User. This insulates the rest
// of the client from payload shape drift.
func Normalize(raw json.RawMessage) (*User, error) {
	if len(raw) == 0 {
		return nil, ErrNoUser
	}

	// Wrapper shape first: {"user": {...}}
	var w wrapped
	if err := json.Unmarshal(raw, &w); err == nil && w.User != nil && w.User.ID != "" {
		return w.User, nil
	}

	// Raw user shape
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, ErrNoUser
	}
	return &u, nil
}
