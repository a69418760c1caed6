// Package bsp provides a reader for GoldSrc (version 30) BSP map files.
//
// Only the lumps needed to render a map are decoded: entities, textures,
// vertices, texinfo, faces, lighting, edges, surfedges, and models. Node,
// leaf, clipnode, plane, and visibility lumps are kept as raw byte ranges.
package bsp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/bspview/pkg/wad"
)

// Version is the only supported BSP version.
const Version = 30

// MaxLightStyles is the number of light style slots a face can carry.
const MaxLightStyles = 4

// NoLightStyle marks an unused light style slot.
const NoLightStyle = 255

// TexSpecial flags a texinfo that bypasses lightmapping (sky, liquids, triggers).
const TexSpecial = 1

// Lump indices.
const (
	LumpEntities = iota
	LumpPlanes
	LumpTextures
	LumpVertices
	LumpVisibility
	LumpNodes
	LumpTexInfo
	LumpFaces
	LumpLighting
	LumpClipNodes
	LumpLeaves
	LumpMarkSurfaces
	LumpEdges
	LumpSurfEdges
	LumpModels
	NumLumps
)

// BSP format errors.
var (
	ErrUnsupportedVersion = errors.New("unsupported BSP version")
	ErrTruncatedData      = errors.New("truncated BSP data")
	ErrBadLumpSize        = errors.New("lump size is not a multiple of its element size")
)

// Lump locates a lump inside the file.
type Lump struct {
	Offset int32
	Length int32
}

// Header is the BSP file header.
type Header struct {
	Version int32
	Lumps   [NumLumps]Lump
}

// TexInfo maps world positions to texture space.
type TexInfo struct {
	S      mgl32.Vec3
	ShiftS float32
	T      mgl32.Vec3
	ShiftT float32
	MipTex uint32
	Flags  uint32
}

// IsSpecial reports whether the texinfo is flagged TexSpecial.
func (ti *TexInfo) IsSpecial() bool {
	return ti.Flags&TexSpecial != 0
}

// Face is a convex polygon described by a run of surfedges.
type Face struct {
	Plane       uint16
	Side        uint16
	FirstEdge   int32
	NumEdges    uint16
	TexInfo     uint16
	Styles      [MaxLightStyles]uint8
	LightOffset int32 // Byte offset into the lighting lump, -1 = unlit
}

// HasStyle reports whether light style slot s is in use.
func (f *Face) HasStyle(s int) bool {
	return s >= 0 && s < MaxLightStyles && f.Styles[s] != NoLightStyle
}

// Edge joins two vertices.
type Edge struct {
	V [2]uint16
}

// Model is a BSP sub-model. Model 0 is the world; the others are brush entities.
type Model struct {
	Mins      mgl32.Vec3
	Maxs      mgl32.Vec3
	Origin    mgl32.Vec3
	HeadNodes [4]int32
	VisLeafs  int32
	FirstFace int32
	NumFaces  int32
}

// MipTexEntry is one material of the texture lump.
type MipTexEntry struct {
	Header  wad.MipTexHeader
	Block   []byte // Miptex block from the header to the end of the lump
	Missing bool   // Offset was -1 in the lump directory
}

// Name returns the material name.
func (e *MipTexEntry) Name() string {
	return e.Header.TextureName()
}

// Map is a parsed BSP file.
type Map struct {
	Name      string
	Header    Header
	Entities  []*Entity
	Textures  []MipTexEntry
	Vertices  []mgl32.Vec3
	TexInfos  []TexInfo
	Faces     []Face
	LightData []byte
	Edges     []Edge
	SurfEdges []int32
	Models    []Model
}

// Load reads and parses a BSP file from disk.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return m, nil
}

// Parse parses a BSP file from raw bytes.
func Parse(data []byte) (*Map, error) {
	m := &Map{}

	if len(data) < binary.Size(m.Header) {
		return nil, fmt.Errorf("%w: header", ErrTruncatedData)
	}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &m.Header); err != nil {
		return nil, fmt.Errorf("%w: header", ErrTruncatedData)
	}
	if m.Header.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, m.Header.Version)
	}

	for i, l := range m.Header.Lumps {
		if l.Offset < 0 || l.Length < 0 || int64(l.Offset)+int64(l.Length) > int64(len(data)) {
			return nil, fmt.Errorf("%w: lump %d (offset %d, length %d)", ErrTruncatedData, i, l.Offset, l.Length)
		}
	}

	var err error
	m.Entities = ParseEntities(m.lump(data, LumpEntities))

	if m.Textures, err = parseTextures(m.lump(data, LumpTextures)); err != nil {
		return nil, err
	}
	if m.Vertices, err = readLump[mgl32.Vec3](m.lump(data, LumpVertices), "vertices"); err != nil {
		return nil, err
	}
	if m.TexInfos, err = readLump[TexInfo](m.lump(data, LumpTexInfo), "texinfo"); err != nil {
		return nil, err
	}
	if m.Faces, err = readLump[Face](m.lump(data, LumpFaces), "faces"); err != nil {
		return nil, err
	}
	if m.Edges, err = readLump[Edge](m.lump(data, LumpEdges), "edges"); err != nil {
		return nil, err
	}
	if m.SurfEdges, err = readLump[int32](m.lump(data, LumpSurfEdges), "surfedges"); err != nil {
		return nil, err
	}
	if m.Models, err = readLump[Model](m.lump(data, LumpModels), "models"); err != nil {
		return nil, err
	}

	lighting := m.lump(data, LumpLighting)
	m.LightData = make([]byte, len(lighting))
	copy(m.LightData, lighting)

	return m, nil
}

func (m *Map) lump(data []byte, idx int) []byte {
	l := m.Header.Lumps[idx]
	return data[l.Offset : l.Offset+l.Length]
}

// readLump decodes a lump made of fixed-size little-endian records.
func readLump[T any](data []byte, name string) ([]T, error) {
	var zero T
	size := binary.Size(zero)
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%w: %s (%d bytes, element %d)", ErrBadLumpSize, name, len(data), size)
	}
	out := make([]T, len(data)/size)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return out, nil
}

func parseTextures(data []byte) ([]MipTexEntry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: texture count", ErrTruncatedData)
	}

	count := int(int32(binary.LittleEndian.Uint32(data)))
	if count < 0 || 4+count*4 > len(data) {
		return nil, fmt.Errorf("%w: texture directory (%d entries)", ErrTruncatedData, count)
	}

	entries := make([]MipTexEntry, count)
	for i := range count {
		off := int32(binary.LittleEndian.Uint32(data[4+i*4:]))
		if off < 0 {
			entries[i].Missing = true
			continue
		}
		if int(off) >= len(data) {
			return nil, fmt.Errorf("%w: texture %d at offset %d", ErrTruncatedData, i, off)
		}

		block := data[off:]
		h, err := wad.ParseMipTexHeader(block)
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
		entries[i].Header = *h
		entries[i].Block = block
	}
	return entries, nil
}

// MipTexBlock returns the raw miptex block of material i, or nil.
func (m *Map) MipTexBlock(i int) []byte {
	if i < 0 || i >= len(m.Textures) || m.Textures[i].Missing {
		return nil
	}
	return m.Textures[i].Block
}

// FaceVertices returns the boundary of a face in edge-loop order. A negative
// surfedge walks its edge backwards, so the second endpoint is used.
// Out-of-range references are skipped.
func (m *Map) FaceVertices(face *Face) []mgl32.Vec3 {
	verts := make([]mgl32.Vec3, 0, face.NumEdges)
	for e := range int32(face.NumEdges) {
		idx := face.FirstEdge + e
		if idx < 0 || int(idx) >= len(m.SurfEdges) {
			continue
		}
		surfEdge := m.SurfEdges[idx]

		edgeIdx := surfEdge
		if edgeIdx < 0 {
			edgeIdx = -edgeIdx
		}
		if int(edgeIdx) >= len(m.Edges) {
			continue
		}
		edge := m.Edges[edgeIdx]

		vertIdx := edge.V[0]
		if surfEdge < 0 {
			vertIdx = edge.V[1]
		}
		if int(vertIdx) >= len(m.Vertices) {
			continue
		}
		verts = append(verts, m.Vertices[vertIdx])
	}
	return verts
}

// Worldspawn returns the worldspawn entity, or nil.
func (m *Map) Worldspawn() *Entity {
	for _, ent := range m.Entities {
		if ent.Classname() == "worldspawn" {
			return ent
		}
	}
	return nil
}
