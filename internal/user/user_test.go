package user

import (
	"encoding/json"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantID  string
		wantErr bool
	}{
		{
			name:    "raw user object",
			payload: `{"_id":"u1","fullname":"Anna Doe","username":"chef_anna","email":"anna@example.com"}`,
			wantID:  "u1",
		},
		{
			name:    "wrapped user object",
			payload: `{"user":{"_id":"u2","fullname":"Bo Chen","username":"bo_cooks","email":"bo@example.com"}}`,
			wantID:  "u2",
		},
		{
			name: "wrapped user with location",
			payload: `{"user":{"_id":"u3","fullname":"Cal","username":"cal_bakes","email":"cal@example.com",
				"defaultLocation":{"locality":"Lyon","area":"Auvergne-Rhone-Alpes","country":"France",
				"country_code":"FR","point":{"type":"Point","coordinates":[4.84,45.76]}}}}`,
			wantID: "u3",
		},
		{
			name:    "empty payload",
			payload: ``,
			wantErr: true,
		},
		{
			name:    "object without id",
			payload: `{"message":"ok"}`,
			wantErr: true,
		},
		{
			name:    "wrapper without user",
			payload: `{"user":null}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Normalize(json.RawMessage(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Normalize() expected error, got user %+v", u)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() unexpected error: %v", err)
			}
			if u.ID != tt.wantID {
				t.Errorf("Normalize() id = %q, want %q", u.ID, tt.wantID)
			}
		})
	}
}

func TestNormalizeKeepsLocationPoint(t *testing.T) {
	raw := json.RawMessage(`{"_id":"u1","fullname":"Anna","username":"chef_anna","email":"a@b.co",
		"defaultLocation":{"locality":"Lyon","area":"ARA","country":"France","point":{"type":"Point","coordinates":[4.84,45.76]}}}`)
	u, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if u.DefaultLocation == nil || u.DefaultLocation.Point == nil {
		t.Fatal("expected default location with point")
	}
	if u.DefaultLocation.Point.Coordinates != [2]float64{4.84, 45.76} {
		t.Errorf("point coordinates = %v", u.DefaultLocation.Point.Coordinates)
	}
}

func TestFormLocation(t *testing.T) {
	if !(FormLocation{}).Empty() {
		t.Error("zero location should be empty")
	}
	partial := FormLocation{Locality: "A", Country: "C"}
	if partial.Empty() || partial.Complete() {
		t.Error("partial location should be neither empty nor complete")
	}
	full := FormLocation{Locality: "A", Area: "B", Country: "C"}
	if !full.Complete() {
		t.Error("full location should be complete")
	}
	trimmed := FormLocation{Locality: " A ", Area: "\tB", Country: "C\n"}.Trimmed()
	if trimmed != full {
		t.Errorf("Trimmed() = %+v, want %+v", trimmed, full)
	}
}
