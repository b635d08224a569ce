package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		constraints StringConstraints
		wantErr     error
		wantOutput  string
	}{
		{
			name:  "valid string within length constraints",
			input: "Shepherd's Pie",
			constraints: StringConstraints{
				MinLength: 5,
				MaxLength: 20,
				TrimSpace: true,
			},
			wantErr:    nil,
			wantOutput: "Shepherd's Pie",
		},
		{
			name:  "string too short",
			input: "Jo",
			constraints: StringConstraints{
				MinLength: 3,
				MaxLength: 20,
			},
			wantErr: ErrStringTooShort,
		},
		{
			name:  "string too long",
			input: strings.Repeat("a", 101),
			constraints: StringConstraints{
				MinLength: 1,
				MaxLength: 100,
			},
			wantErr: ErrStringTooLong,
		},
		{
			name:  "empty string not allowed",
			input: "",
			constraints: StringConstraints{
				AllowEmpty: false,
			},
			wantErr: ErrEmpty,
		},
		{
			name:  "empty string allowed",
			input: "",
			constraints: StringConstraints{
				AllowEmpty: true,
			},
			wantErr:    nil,
			wantOutput: "",
		},
		{
			name:  "whitespace trimmed before validation",
			input: "  Jo  ",
			constraints: StringConstraints{
				MinLength: 3,
				TrimSpace: true,
			},
			wantErr: ErrStringTooShort,
		},
		{
			name:  "whitespace-only string is empty after trim",
			input: "   ",
			constraints: StringConstraints{
				TrimSpace:  true,
				AllowEmpty: false,
			},
			wantErr: ErrEmpty,
		},
		{
			name:  "length counted in runes not bytes",
			input: "日本料理",
			constraints: StringConstraints{
				MinLength: 4,
				MaxLength: 4,
			},
			wantErr:    nil,
			wantOutput: "日本料理",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := String(tt.input, tt.constraints)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("String() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("String() unexpected error: %v", err)
			}
			if got != tt.wantOutput {
				t.Errorf("String() = %q, want %q", got, tt.wantOutput)
			}
		})
	}
}

func TestFullName(t *testing.T) {
	if _, err := FullName("Jo"); !errors.Is(err, ErrStringTooShort) {
		t.Errorf("FullName(\"Jo\") error = %v, want %v", err, ErrStringTooShort)
	}
	if _, err := FullName(""); !errors.Is(err, ErrEmpty) {
		t.Errorf("FullName(\"\") error = %v, want %v", err, ErrEmpty)
	}
	got, err := FullName("  Joanna Doe  ")
	if err != nil {
		t.Fatalf("FullName() unexpected error: %v", err)
	}
	if got != "Joanna Doe" {
		t.Errorf("FullName() = %q, want trimmed value", got)
	}
}

func TestUsername(t *testing.T) {
	if _, err := Username("chef"); !errors.Is(err, ErrStringTooShort) {
		t.Errorf("Username(\"chef\") error = %v, want %v", err, ErrStringTooShort)
	}
	if _, err := Username("chef_anna"); err != nil {
		t.Errorf("Username(\"chef_anna\") unexpected error: %v", err)
	}
}

func TestBio(t *testing.T) {
	if _, err := Bio(""); err != nil {
		t.Errorf("Bio(\"\") unexpected error: %v", err)
	}
	if _, err := Bio(strings.Repeat("x", 201)); !errors.Is(err, ErrStringTooLong) {
		t.Errorf("Bio(201 chars) error = %v, want %v", err, ErrStringTooLong)
	}
	if _, err := Bio(strings.Repeat("x", 200)); err != nil {
		t.Errorf("Bio(200 chars) unexpected error: %v", err)
	}
}

func TestRecipeFieldHelpers(t *testing.T) {
	if _, err := RecipeTitle(strings.Repeat("t", 101)); !errors.Is(err, ErrStringTooLong) {
		t.Errorf("RecipeTitle(101 chars) error = %v, want %v", err, ErrStringTooLong)
	}
	if _, err := RecipeDescription(strings.Repeat("d", 501)); !errors.Is(err, ErrStringTooLong) {
		t.Errorf("RecipeDescription(501 chars) error = %v, want %v", err, ErrStringTooLong)
	}
	if _, err := RecipeDescription(""); err != nil {
		t.Errorf("RecipeDescription(\"\") unexpected error: %v", err)
	}
	if _, err := IngredientName("   "); !errors.Is(err, ErrEmpty) {
		t.Errorf("IngredientName(blank) error = %v, want %v", err, ErrEmpty)
	}
	if _, err := Measure(strings.Repeat("m", 21)); !errors.Is(err, ErrStringTooLong) {
		t.Errorf("Measure(21 chars) error = %v, want %v", err, ErrStringTooLong)
	}
	if _, err := InstructionStep(strings.Repeat("s", 201)); !errors.Is(err, ErrStringTooLong) {
		t.Errorf("InstructionStep(201 chars) error = %v, want %v", err, ErrStringTooLong)
	}
	if _, err := InstructionStep(""); !errors.Is(err, ErrEmpty) {
		t.Errorf("InstructionStep(\"\") error = %v, want %v", err, ErrEmpty)
	}
}
