// Package locations exposes the read-only location endpoints used for map
// initialization.
package locations

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/onnwee/tastemap/internal/apiclient"
)

// Coords is the bulk coordinate dump for seeding a map view. Pairs are
// [lng, lat], GeoJSON order.
type Coords struct {
	Count  int          `json:"count"`
	Coords [][2]float64 `json:"coords"`
}

// MultiPoint converts the dump to an orb geometry.
func (c Coords) MultiPoint() orb.MultiPoint {
	mp := make(orb.MultiPoint, 0, len(c.Coords))
	for _, pair := range c.Coords {
		mp = append(mp, orb.Point{pair[0], pair[1]})
	}
	return mp
}

// API wraps the location endpoints.
type API struct {
	client *apiclient.Client
}

func NewAPI(client *apiclient.Client) *API {
	return &API{client: client}
}

// AllCoords fetches every stored location coordinate.
func (a *API) AllCoords(ctx context.Context) (*Coords, error) {
	var out Coords
	if err := a.client.Get(ctx, "/loc/all/coords", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
