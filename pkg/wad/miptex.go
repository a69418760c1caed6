package wad

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/bspview/pkg/encoding"
)

// PaletteSize is the number of entries in a miptex color palette.
const PaletteSize = 256

// MipLevels is the number of mip levels stored in a miptex block.
const MipLevels = 4

const mipTexHeaderSize = 40

// MipTexHeader is the fixed header shared by WAD miptex lumps and textures
// embedded in a BSP texture lump. Offsets are relative to the header start;
// a zero Offsets[0] means the pixel data lives in an external WAD.
type MipTexHeader struct {
	Name    [16]byte
	Width   uint32
	Height  uint32
	Offsets [MipLevels]uint32
}

// TextureName returns the header name as a UTF-8 string.
func (h *MipTexHeader) TextureName() string {
	return encoding.FixedStringToUTF8(h.Name[:])
}

// HasPixels reports whether the block carries its own pixel data.
func (h *MipTexHeader) HasPixels() bool {
	return h.Offsets[0] > 0
}

// MipTex is a decoded palette-indexed texture (mip level 0 only).
type MipTex struct {
	Name    string
	Width   int
	Height  int
	Indices []byte                // Width*Height palette indices
	Palette [PaletteSize][3]uint8 // RGB
}

// ParseMipTexHeader reads the 40-byte header at the start of block.
func ParseMipTexHeader(block []byte) (*MipTexHeader, error) {
	if len(block) < mipTexHeaderSize {
		return nil, fmt.Errorf("%w: miptex header", ErrTruncatedData)
	}
	var h MipTexHeader
	if err := binary.Read(bytes.NewReader(block[:mipTexHeaderSize]), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("reading miptex header: %w", err)
	}
	return &h, nil
}

// ParseMipTex decodes level 0 and the palette from a miptex block.
// The palette follows the last mip level and a 2-byte color count.
func ParseMipTex(block []byte) (*MipTex, error) {
	h, err := ParseMipTexHeader(block)
	if err != nil {
		return nil, err
	}
	if !h.HasPixels() {
		return nil, fmt.Errorf("%w: %s", ErrNoPixelData, h.TextureName())
	}
	if h.Width == 0 || h.Height == 0 || h.Width > 4096 || h.Height > 4096 {
		return nil, fmt.Errorf("invalid miptex dimensions: %dx%d", h.Width, h.Height)
	}

	w, ht := int(h.Width), int(h.Height)
	pixelCount := w * ht
	start := int(h.Offsets[0])
	if start+pixelCount > len(block) {
		return nil, fmt.Errorf("%w: %s level 0", ErrTruncatedData, h.TextureName())
	}

	lastMipSize := (w / 8) * (ht / 8)
	palStart := int(h.Offsets[3]) + lastMipSize + 2
	if palStart+PaletteSize*3 > len(block) {
		return nil, fmt.Errorf("%w: %s palette", ErrTruncatedData, h.TextureName())
	}

	tex := &MipTex{
		Name:    h.TextureName(),
		Width:   w,
		Height:  ht,
		Indices: make([]byte, pixelCount),
	}
	copy(tex.Indices, block[start:start+pixelCount])
	for i := range PaletteSize {
		copy(tex.Palette[i][:], block[palStart+i*3:palStart+i*3+3])
	}
	return tex, nil
}

// EncodeMipTex serializes tex as a miptex block. Mip levels 1-3 are written
// as nearest-neighbour downsamples of level 0.
func EncodeMipTex(tex *MipTex) []byte {
	buf := new(bytes.Buffer)

	var h MipTexHeader
	copy(h.Name[:], encoding.UTF8ToFixedString(tex.Name, len(h.Name)))
	h.Width = uint32(tex.Width)
	h.Height = uint32(tex.Height)

	offset := uint32(mipTexHeaderSize)
	for level := range MipLevels {
		h.Offsets[level] = offset
		offset += uint32((tex.Width >> level) * (tex.Height >> level))
	}
	binary.Write(buf, binary.LittleEndian, &h)

	for level := range MipLevels {
		lw, lh := tex.Width>>level, tex.Height>>level
		for y := range lh {
			for x := range lw {
				buf.WriteByte(tex.Indices[(y<<level)*tex.Width+(x<<level)])
			}
		}
	}

	binary.Write(buf, binary.LittleEndian, uint16(PaletteSize))
	for i := range PaletteSize {
		buf.Write(tex.Palette[i][:])
	}
	// Pad to 4-byte alignment like the map compilers do
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}
