package vector

import "testing"

func TestNormalizeHex(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#ffe100", "#ffe100", true},
		{"#FFE100", "#ffe100", true},
		{" #abc ", "#aabbcc", true},
		{"#fff", "#ffffff", true},
		{"ffe100", "", false},
		{"#ffe1", "", false},
		{"#ffe1000", "", false},
		{"#xyzxyz", "", false},
		{"", "", false},
		{"rgb(1,2,3)", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeHex(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeHex(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want RGB
		ok   bool
	}{
		{"#5599ec", RGB{0x55, 0x99, 0xec}, true},
		{"#fe0", RGB{0xff, 0xee, 0x00}, true},
		{"rgb(10, 20, 30)", RGB{10, 20, 30}, true},
		{"RGB(1,2,3)", RGB{1, 2, 3}, true},
		{"rgb(300,0,0)", RGB{255, 0, 0}, true},
		{"rgba(1,2,3,0.5)", RGB{}, false},
		{"blue", RGB{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseColor(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseColor(%q) = %+v, %v, want %+v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRGBHex(t *testing.T) {
	if got := (RGB{0xff, 0xe1, 0x00}).Hex(); got != "#ffe100" {
		t.Errorf("Hex() = %q, want #ffe100", got)
	}
}
