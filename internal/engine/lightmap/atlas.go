package lightmap

import (
	"go.uber.org/zap"

	"github.com/Faultbox/bspview/pkg/bsp"
)

// Placement locates one light style of a face inside the atlas.
type Placement struct {
	Page  int
	X, Y  int
	Valid bool // Style present and placed
}

// FaceInfo holds a face's sample grid and its per-style placements.
type FaceInfo struct {
	Width, Height      int
	MidTexU, MidTexV   float32
	MidPolyU, MidPolyV float32
	Slots              [bsp.MaxLightStyles]Placement
}

// Options configures atlas building.
type Options struct {
	Size   int // Page edge length; 0 = DefaultAtlasSize
	Logger *zap.Logger
}

// Atlas is the result of packing a map's light data.
type Atlas struct {
	*Packer
	Faces  []FaceInfo // Indexed like bsp.Map.Faces
	Placed int        // Successful placements
}

// Build packs the light samples of every lit face of m. Faces without light
// data or with a special texinfo get a zero FaceInfo. Each present style is
// placed separately; styles that do not fit are logged and left invalid.
func Build(m *bsp.Map, opts Options) *Atlas {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	a := &Atlas{
		Packer: NewPacker(opts.Size),
		Faces:  make([]FaceInfo, len(m.Faces)),
	}

	for i := range m.Faces {
		face := &m.Faces[i]
		if int(face.TexInfo) >= len(m.TexInfos) {
			log.Warn("face references missing texinfo",
				zap.Int("face", i),
				zap.Uint16("texinfo", face.TexInfo),
			)
			continue
		}
		ti := &m.TexInfos[face.TexInfo]
		if face.LightOffset < 0 || ti.IsSpecial() {
			continue
		}

		ext := FaceExtents(m, face, ti)
		info := &a.Faces[i]
		info.Width, info.Height = ext.Size[0], ext.Size[1]
		info.MidTexU, info.MidTexV = ext.MidTex()
		info.MidPolyU, info.MidPolyV = ext.MidPoly()

		styleBytes := info.Width * info.Height * 3
		for s := range bsp.MaxLightStyles {
			if !face.HasStyle(s) {
				continue
			}

			page, x, y, ok := a.Place(info.Width, info.Height)
			if !ok {
				log.Warn("lightmap too big for atlas",
					zap.Int("face", i),
					zap.Int("width", info.Width),
					zap.Int("height", info.Height),
					zap.Int("atlas_size", a.Size()),
				)
				continue
			}
			a.Placed++
			info.Slots[s] = Placement{Page: page, X: x, Y: y, Valid: true}

			start := int(face.LightOffset) + s*styleBytes
			if start >= len(m.LightData) {
				log.Warn("light data out of range",
					zap.Int("face", i),
					zap.Int("style", s),
					zap.Int("offset", start),
				)
				continue
			}
			end := min(start+styleBytes, len(m.LightData))
			a.Blit(page, x, y, info.Width, info.Height, m.LightData[start:end])
		}
	}

	log.Info("fit lightmaps into atlases",
		zap.Int("lightmaps", a.Placed),
		zap.Int("atlases", len(a.Pages())),
	)
	return a
}
