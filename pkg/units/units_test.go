package units

import "testing"

func TestConvert(t *testing.T) {
	tests := []struct {
		raw, unit, want float64
	}{
		{200, Centimeter, 20},
		{400, Centimeter, 40},
		{10, Centimeter, 1},
		{-150, Centimeter, -15},
		{1500, Meter, 1.5},
		{7, Millimeter, 7},
	}
	for _, tt := range tests {
		if got := Convert(tt.raw, tt.unit); got != tt.want {
			t.Errorf("Convert(%v, %v) = %v, want %v", tt.raw, tt.unit, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	u, err := Parse("cm")
	if err != nil {
		t.Fatalf("Parse(cm): %v", err)
	}
	if u != Centimeter {
		t.Errorf("Parse(cm) = %v, want %v", u, Centimeter)
	}
	if _, err := Parse("furlong"); err == nil {
		t.Error("expected error for unknown unit")
	}
}
