package debug

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/bspview/internal/engine/texture"
)

func TestDumpTexture_PNG(t *testing.T) {
	tex := texture.NewSolid("atlas", 4, 2, 10, 20, 30)
	path := filepath.Join(t.TempDir(), "out", "atlas.png")

	if err := DumpTexture(path, tex); err != nil {
		t.Fatalf("DumpTexture failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
	r, g, b, a := img.At(3, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 || a>>8 != 255 {
		t.Errorf("unexpected pixel %d %d %d %d", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestDumpTexture_BMP(t *testing.T) {
	tex := texture.NewSolid("atlas", 8, 8, 200, 100, 50)
	path := filepath.Join(t.TempDir(), "atlas.BMP")

	if err := DumpTexture(path, tex); err != nil {
		t.Fatalf("DumpTexture failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	img, err := bmp.Decode(f)
	if err != nil {
		t.Fatalf("output is not a BMP: %v", err)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r>>8 != 200 {
		t.Errorf("red = %d, want 200", r>>8)
	}
}

func TestCaptureFromPixels(t *testing.T) {
	dir := t.TempDir()
	sc := NewScreenshotCapture(dir, "shot")

	// 1x2 image: bottom row red, top row blue (GL order)
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	path, err := sc.CaptureFromPixels(pixels, 1, 2)
	if err != nil {
		t.Fatalf("CaptureFromPixels failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "shot_") || filepath.Ext(path) != ".png" {
		t.Errorf("unexpected filename %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, b, _ := img.At(0, 0).RGBA(); b>>8 != 255 {
		t.Error("image should be flipped so the top row comes first")
	}

	if _, err := sc.CaptureFromPixels(pixels[:4], 1, 2); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestScreenshotCapture_SetFormat(t *testing.T) {
	sc := NewScreenshotCapture("", "shot")
	sc.SetFormat(".bmp")

	if name := sc.GenerateFilename(); filepath.Ext(name) != ".bmp" || filepath.Dir(name) != "." {
		t.Errorf("unexpected filename %s", name)
	}
}
