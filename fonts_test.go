package pdftpl

import (
	"bytes"
	"testing"
)

func TestStringWidth(t *testing.T) {
	tests := []struct {
		s    string
		size float64
		want float64
	}{
		{"", 12, 0},
		{"A", 1000, 667},
		{"Hello", 10, 22.78},
		{"é", 1, 0.556},
	}
	for _, tt := range tests {
		got := StringWidth(tt.s, tt.size)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("StringWidth(%q, %v) = %v, want %v", tt.s, tt.size, got, tt.want)
		}
	}
}

func TestToWinAnsi(t *testing.T) {
	if got := toWinAnsi("café €"); !bytes.Equal(got, []byte{'c', 'a', 'f', 0xe9, ' ', 0x80}) {
		t.Errorf("toWinAnsi = % x", got)
	}
	got := toWinAnsi("日")
	if len(got) != 1 {
		t.Errorf("unsupported rune encoded as % x", got)
	}
}

func TestTextString(t *testing.T) {
	if got := textString("Ada"); string(got.Value) != "Ada" {
		t.Errorf("textString(Ada) = % x", got.Value)
	}
	want := []byte{0xfe, 0xff, 0x00, 'Z', 0x00, 'o', 0x00, 0xeb}
	if got := textString("Zoë"); !bytes.Equal(got.Value, want) {
		t.Errorf("textString(Zoë) = % x, want % x", got.Value, want)
	}
}
