package mesh

import (
	"go.uber.org/zap"

	"github.com/Faultbox/bspview/internal/engine/lightmap"
	"github.com/Faultbox/bspview/internal/engine/texture"
	"github.com/Faultbox/bspview/pkg/bsp"
)

// SpecialOpacity is the opacity of faces with a special texinfo.
const SpecialOpacity = 0.5

// Materials resolves material indices to shared textures.
type Materials interface {
	Resolve(i int) *texture.Texture
	White() *texture.Texture
}

// Face is a triangulated face and the textures it samples.
type Face struct {
	Index     int
	Vertices  []Vertex // Triangle list
	Texture   *texture.Texture
	Lightmaps [bsp.MaxLightStyles]*texture.Texture
	Opacity   float32
}

// Transparent reports whether the face belongs to the blended pass.
func (f *Face) Transparent() bool {
	return f.Opacity < 1
}

// Builder produces render faces from a map, its materials, and its atlas.
type Builder struct {
	m         *bsp.Map
	materials Materials
	atlas     *lightmap.Atlas
	log       *zap.Logger
}

// NewBuilder creates a face builder. A nil logger discards warnings.
func NewBuilder(m *bsp.Map, materials Materials, atlas *lightmap.Atlas, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{m: m, materials: materials, atlas: atlas, log: log}
}

// BuildFace builds face i. ok is false when the face or its texinfo does not
// exist.
func (b *Builder) BuildFace(i int) (Face, bool) {
	if i < 0 || i >= len(b.m.Faces) {
		b.log.Warn("face index out of range", zap.Int("face", i))
		return Face{}, false
	}
	face := &b.m.Faces[i]
	if int(face.TexInfo) >= len(b.m.TexInfos) {
		b.log.Warn("face references missing texinfo",
			zap.Int("face", i),
			zap.Uint16("texinfo", face.TexInfo),
		)
		return Face{}, false
	}
	ti := &b.m.TexInfos[face.TexInfo]

	tex := b.materials.Resolve(int(ti.MipTex))
	texW, texH := b.textureSize(int(ti.MipTex), tex)

	special := ti.IsSpecial()
	hasLighting := face.Styles[0] != bsp.NoLightStyle && face.LightOffset >= 0 && !special

	var info lightmap.FaceInfo
	if i < len(b.atlas.Faces) {
		info = b.atlas.Faces[i]
	}

	out := Face{
		Index:   i,
		Texture: tex,
		Opacity: 1,
	}
	for s := range out.Lightmaps {
		// Unused slots point at page 0
		out.Lightmaps[s] = b.atlas.PageTexture(info.Slots[s].Page)
	}
	if special {
		out.Lightmaps[0] = b.materials.White()
		out.Opacity = SpecialOpacity
	}

	atlasSize := float32(b.atlas.Size())
	pixelStep := 1 / atlasSize
	lw := float32(info.Width) / atlasSize
	lh := float32(info.Height) / atlasSize
	lit := hasLighting && info.Width > 0 && info.Height > 0

	verts := b.m.FaceVertices(face)
	fan := make([]Vertex, len(verts))
	for k, p := range verts {
		v := &fan[k]
		v.Position = [3]float32{p[0], p[2], -p[1]}
		v.Opacity = out.Opacity

		fU := ti.S.Dot(p) + ti.ShiftS
		fV := ti.T.Dot(p) + ti.ShiftT
		v.UV = [2]float32{fU / texW, fV / texH}

		if lit {
			lu := info.MidTexU + (fU-info.MidPolyU)/lightmap.SampleSize
			lv := info.MidTexV + (fV-info.MidPolyV)/lightmap.SampleSize
			uu := (lu / float32(info.Width)) * lw
			vv := (lv / float32(info.Height)) * lh
			for s := range v.Lightmap {
				v.Lightmap[s][0] = uu + float32(info.Slots[s].X)*pixelStep
				v.Lightmap[s][1] = vv + float32(info.Slots[s].Y)*pixelStep
			}
		}

		for s := range v.Lightmap {
			if hasLighting && info.Slots[s].Valid {
				v.Lightmap[s][2] = 1
			}
		}
		if special {
			v.Lightmap[0][2] = 1
		}
	}

	out.Vertices = Triangulate(fan)
	return out, true
}

// BuildModel builds every face of sub-model idx, skipping faces that cannot
// be built.
func (b *Builder) BuildModel(idx int) []Face {
	if idx < 0 || idx >= len(b.m.Models) {
		return nil
	}
	model := &b.m.Models[idx]

	faces := make([]Face, 0, max(model.NumFaces, 0))
	for k := range model.NumFaces {
		if f, ok := b.BuildFace(int(model.FirstFace + k)); ok {
			faces = append(faces, f)
		}
	}
	return faces
}

// textureSize returns the material dimensions from the miptex header,
// falling back to the decoded texture.
func (b *Builder) textureSize(miptex int, tex *texture.Texture) (float32, float32) {
	if miptex >= 0 && miptex < len(b.m.Textures) {
		h := &b.m.Textures[miptex].Header
		if h.Width > 0 && h.Height > 0 {
			return float32(h.Width), float32(h.Height)
		}
	}
	return float32(tex.Width), float32(tex.Height)
}
