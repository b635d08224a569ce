package locations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onnwee/tastemap/internal/apiclient"
)

func TestAllCoords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loc/all/coords" {
			t.Errorf("path = %s, want /loc/all/coords", r.URL.Path)
		}
		w.Write([]byte(`{"count":2,"coords":[[-9.14,38.72],[139.69,35.69]]}`))
	}))
	t.Cleanup(srv.Close)

	client, err := apiclient.New(apiclient.Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("apiclient.New() error: %v", err)
	}

	coords, err := NewAPI(client).AllCoords(context.Background())
	if err != nil {
		t.Fatalf("AllCoords() error: %v", err)
	}
	if coords.Count != 2 || len(coords.Coords) != 2 {
		t.Fatalf("coords = %+v, want 2 pairs", coords)
	}
	if coords.Coords[0] != [2]float64{-9.14, 38.72} {
		t.Errorf("first pair = %v, want [-9.14 38.72]", coords.Coords[0])
	}

	mp := coords.MultiPoint()
	if len(mp) != 2 || mp[1][0] != 139.69 {
		t.Errorf("MultiPoint = %v, want orb points in order", mp)
	}
}
