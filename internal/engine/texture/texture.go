// Package texture provides decoded map textures and the material bank.
package texture

import (
	"image"
	"image/color"

	"github.com/Faultbox/bspview/pkg/wad"
)

// PlaceholderSize is the edge length of the white placeholder texture.
const PlaceholderSize = 16

// Texture is an RGB image with an optional GPU handle.
type Texture struct {
	Name   string
	Width  int
	Height int
	Pix    []byte // RGB, 3 bytes per texel, row-major
	ID     uint32 // GPU handle, 0 until uploaded
}

// Uploader creates and releases GPU copies of textures.
type Uploader interface {
	UploadTexture(tex *Texture)
	DeleteTexture(tex *Texture)
}

// New creates a black texture.
func New(name string, width, height int) *Texture {
	return &Texture{
		Name:   name,
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*3),
	}
}

// NewSolid creates a texture filled with one color.
func NewSolid(name string, width, height int, r, g, b uint8) *Texture {
	tex := New(name, width, height)
	for i := 0; i < len(tex.Pix); i += 3 {
		tex.Pix[i] = r
		tex.Pix[i+1] = g
		tex.Pix[i+2] = b
	}
	return tex
}

// NewWhite creates the white placeholder used for missing materials and
// for the light slot of special faces.
func NewWhite() *Texture {
	return NewSolid("white", PlaceholderSize, PlaceholderSize, 255, 255, 255)
}

// Decode expands a palette-indexed miptex into RGB. Texel k takes the
// palette entry of index k; only mip level 0 is used.
func Decode(mt *wad.MipTex) *Texture {
	tex := New(mt.Name, mt.Width, mt.Height)
	for k, idx := range mt.Indices {
		c := mt.Palette[idx]
		tex.Pix[k*3] = c[0]
		tex.Pix[k*3+1] = c[1]
		tex.Pix[k*3+2] = c[2]
	}
	return tex
}

// IsColorKey reports whether an RGB color is the pure blue used by
// transparent ("{"-prefixed) materials.
// Uses tolerance (R <= 10, G <= 10, B >= 245) to survive lossy sources.
func IsColorKey(r, g, b uint8) bool {
	return r <= 10 && g <= 10 && b >= 245
}

// RGBA converts the texture to an *image.RGBA.
// If applyColorKey is true, color-key texels are made transparent black.
func (t *Texture) RGBA(applyColorKey bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	for y := range t.Height {
		for x := range t.Width {
			i := (y*t.Width + x) * 3
			r, g, b := t.Pix[i], t.Pix[i+1], t.Pix[i+2]
			a := uint8(255)
			if applyColorKey && IsColorKey(r, g, b) {
				r, g, b, a = 0, 0, 0, 0
			}
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: a})
		}
	}
	return img
}

// IsTransparentName reports whether a material name uses the color key.
func IsTransparentName(name string) bool {
	return len(name) > 0 && name[0] == '{'
}
