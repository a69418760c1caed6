// Package mesh converts map faces into triangle lists with material,
// lightmap, and opacity channels.
package mesh

import "github.com/Faultbox/bspview/pkg/bsp"

// FloatsPerVertex is the interleaved size of a Vertex:
// UV(2) + 4 lightmap (u, v, scale) triples(12) + opacity(1) + position(3).
const FloatsPerVertex = 18

// Vertex is one map vertex in render space.
type Vertex struct {
	UV       [2]float32
	Lightmap [bsp.MaxLightStyles][3]float32 // u, v, scale
	Opacity  float32
	Position [3]float32
}

// AppendFloats appends v in attribute order and returns the extended slice.
func (v *Vertex) AppendFloats(dst []float32) []float32 {
	dst = append(dst, v.UV[0], v.UV[1])
	for s := range v.Lightmap {
		dst = append(dst, v.Lightmap[s][0], v.Lightmap[s][1], v.Lightmap[s][2])
	}
	dst = append(dst, v.Opacity)
	return append(dst, v.Position[0], v.Position[1], v.Position[2])
}

// Triangulate converts a convex fan into a triangle list using
// (0, k-1, k) for k = 2..n-1. Fans with fewer than 3 vertices yield nothing.
func Triangulate(fan []Vertex) []Vertex {
	if len(fan) < 3 {
		return nil
	}
	out := make([]Vertex, 0, 3*(len(fan)-2))
	for k := 2; k < len(fan); k++ {
		out = append(out, fan[0], fan[k-1], fan[k])
	}
	return out
}
