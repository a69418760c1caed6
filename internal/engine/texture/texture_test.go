package texture

import (
	"testing"

	"github.com/Faultbox/bspview/pkg/wad"
)

func TestDecode(t *testing.T) {
	mt := &wad.MipTex{
		Name:    "TEST",
		Width:   2,
		Height:  2,
		Indices: []byte{0, 1, 2, 1},
	}
	mt.Palette[0] = [3]uint8{10, 20, 30}
	mt.Palette[1] = [3]uint8{40, 50, 60}
	mt.Palette[2] = [3]uint8{70, 80, 90}

	tex := Decode(mt)

	if tex.Name != "TEST" || tex.Width != 2 || tex.Height != 2 {
		t.Fatalf("unexpected texture %s %dx%d", tex.Name, tex.Width, tex.Height)
	}
	want := []byte{10, 20, 30, 40, 50, 60, 70, 80, 90, 40, 50, 60}
	if string(tex.Pix) != string(want) {
		t.Errorf("pix: got %v, want %v", tex.Pix, want)
	}
	if tex.ID != 0 {
		t.Error("decoded texture should not have a GPU handle")
	}
}

func TestNewWhite(t *testing.T) {
	tex := NewWhite()

	if tex.Width != PlaceholderSize || tex.Height != PlaceholderSize {
		t.Fatalf("expected %dx%d, got %dx%d", PlaceholderSize, PlaceholderSize, tex.Width, tex.Height)
	}
	for i, v := range tex.Pix {
		if v != 255 {
			t.Fatalf("byte %d is %d, want 255", i, v)
		}
	}
}

func TestIsColorKey(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    bool
	}{
		{"pure blue", 0, 0, 255, true},
		{"near blue", 8, 4, 250, true},
		{"white", 255, 255, 255, false},
		{"dark blue", 0, 0, 128, false},
		{"cyan", 0, 255, 255, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsColorKey(tc.r, tc.g, tc.b); got != tc.want {
				t.Errorf("IsColorKey(%d, %d, %d) = %v, want %v", tc.r, tc.g, tc.b, got, tc.want)
			}
		})
	}
}

func TestTexture_RGBA(t *testing.T) {
	tex := New("{FENCE", 2, 1)
	copy(tex.Pix, []byte{0, 0, 255, 100, 110, 120})

	keyed := tex.RGBA(true)
	if a := keyed.RGBAAt(0, 0).A; a != 0 {
		t.Errorf("keyed texel alpha = %d, want 0", a)
	}
	if c := keyed.RGBAAt(1, 0); c.R != 100 || c.G != 110 || c.B != 120 || c.A != 255 {
		t.Errorf("unexpected texel %v", c)
	}

	plain := tex.RGBA(false)
	if c := plain.RGBAAt(0, 0); c.B != 255 || c.A != 255 {
		t.Errorf("unkeyed texel should stay opaque blue, got %v", c)
	}
}

func TestIsTransparentName(t *testing.T) {
	if !IsTransparentName("{GRATE") {
		t.Error("{GRATE should be transparent")
	}
	if IsTransparentName("CRATE") || IsTransparentName("") {
		t.Error("only {-prefixed names are transparent")
	}
}
