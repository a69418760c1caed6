// Package batch groups triangulated faces that share textures and
// transparency into one vertex buffer per group.
package batch

import (
	"github.com/Faultbox/bspview/internal/engine/gpu"
	"github.com/Faultbox/bspview/internal/engine/mesh"
	"github.com/Faultbox/bspview/internal/engine/texture"
	"github.com/Faultbox/bspview/pkg/bsp"
)

// Key identifies a render group. Textures compare by identity.
type Key struct {
	Texture     *texture.Texture
	Lightmaps   [bsp.MaxLightStyles]*texture.Texture
	Transparent bool
}

// KeyOf returns the group key of a face.
func KeyOf(f *mesh.Face) Key {
	return Key{
		Texture:     f.Texture,
		Lightmaps:   f.Lightmaps,
		Transparent: f.Transparent(),
	}
}

// Group is a batch of triangles drawn with one call.
type Group struct {
	Key      Key
	Vertices []mesh.Vertex
	Buffer   gpu.VertexBuffer // Set by Finalize
}

// VertexCount returns the number of vertices in the group.
func (g *Group) VertexCount() int {
	return len(g.Vertices)
}

// Model is the ordered list of groups of one map sub-model.
type Model struct {
	Groups []*Group
}

// VertexCount returns the total vertex count of the model.
func (m *Model) VertexCount() int {
	n := 0
	for _, g := range m.Groups {
		n += g.VertexCount()
	}
	return n
}

// Release deletes the vertex buffers of every group.
func (m *Model) Release() {
	for _, g := range m.Groups {
		if g.Buffer != nil {
			g.Buffer.Delete()
			g.Buffer = nil
		}
	}
}

// Batcher assigns faces to groups. Groups keep creation order.
type Batcher struct {
	groups []*Group
}

// NewBatcher creates an empty batcher.
func NewBatcher() *Batcher {
	return &Batcher{}
}

// Add appends the face's vertices to the group with a matching key,
// creating the group on first use. Lookup is a linear scan; group counts per
// model are small compared to face counts. Faces without vertices are
// ignored.
func (b *Batcher) Add(f mesh.Face) {
	if len(f.Vertices) == 0 {
		return
	}

	key := KeyOf(&f)
	for _, g := range b.groups {
		if g.Key == key {
			g.Vertices = append(g.Vertices, f.Vertices...)
			return
		}
	}

	b.groups = append(b.groups, &Group{
		Key:      key,
		Vertices: append([]mesh.Vertex(nil), f.Vertices...),
	})
}

// Groups returns the groups collected so far.
func (b *Batcher) Groups() []*Group {
	return b.groups
}

// Finalize uploads one vertex buffer per group and returns the model. The
// batcher must not be used afterwards.
func (b *Batcher) Finalize(dev gpu.Device) *Model {
	for _, g := range b.groups {
		buf := dev.NewVertexBuffer()
		DeclareLayout(buf)

		data := make([]float32, 0, len(g.Vertices)*mesh.FloatsPerVertex)
		for i := range g.Vertices {
			data = g.Vertices[i].AppendFloats(data)
		}
		buf.SetData(data, len(g.Vertices))
		buf.Upload()
		g.Buffer = buf
	}

	model := &Model{Groups: b.groups}
	b.groups = nil
	return model
}

// DeclareLayout adds the map vertex attributes to buf in the order the
// shader expects.
func DeclareLayout(buf gpu.VertexBuffer) {
	buf.AddAttribute(gpu.AttribTex, 2)
	for s := range bsp.MaxLightStyles {
		buf.AddAttribute(gpu.AttribLightmapTex(s), 3)
	}
	buf.AddAttribute(gpu.AttribOpacity, 1)
	buf.AddAttribute(gpu.AttribPosition, 3)
}
