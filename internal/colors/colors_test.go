package colors

import "testing"

func TestForSheetDeterministic(t *testing.T) {
	a := ForSheet("Critical")
	b := ForSheet("Critical")
	if a != b {
		t.Errorf("same name produced different colors: %v vs %v", a, b)
	}

	other := ForSheet("critical")
	if a == other {
		t.Errorf("case variant unexpectedly produced the same color: %v", a)
	}
}

func TestForSheetStaysInBand(t *testing.T) {
	names := []string{"", "Sheet1", "발전", "a very long sheet name with spaces", "VLV-101"}
	for _, name := range names {
		c := ForSheet(name)
		for _, v := range []uint8{c.R, c.G, c.B} {
			if v < bandLow || v > bandHigh {
				t.Errorf("ForSheet(%q) channel %#02x outside [%#02x, %#02x]", name, v, bandLow, bandHigh)
			}
		}
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{in: "#FFCC00", want: RGB{0xFF, 0xCC, 0x00}},
		{in: "ffcc00", want: RGB{0xFF, 0xCC, 0x00}},
		{in: "  #99BFFF ", want: RGB{0x99, 0xBF, 0xFF}},
		{in: "#FFF", wantErr: true},
		{in: "#GGHHII", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseHex(%q) expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHex(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHexRoundTrip(t *testing.T) {
	c := ForSheet("Critical")
	parsed, err := ParseHex(c.Hex())
	if err != nil {
		t.Fatalf("ParseHex(%q) error = %v", c.Hex(), err)
	}
	if parsed != c {
		t.Errorf("round trip mismatch: %v -> %q -> %v", c, c.Hex(), parsed)
	}
}
