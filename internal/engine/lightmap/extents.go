package lightmap

import (
	"math"

	"github.com/Faultbox/bspview/pkg/bsp"
)

// SampleSize is the world distance between two light samples.
const SampleSize = 16

// Extents describes a face's light sample grid.
type Extents struct {
	Mins [2]int // Grid-aligned texture-space minimum, in samples
	Maxs [2]int // Grid-aligned texture-space maximum, in samples
	Size [2]int // Samples per axis
}

// FaceExtents computes the light sample grid of a face from the texture-space
// bounds of its vertices. Bounds are accumulated in float64 to match the
// light compiler.
func FaceExtents(m *bsp.Map, face *bsp.Face, ti *bsp.TexInfo) Extents {
	mins := [2]float64{math.MaxFloat64, math.MaxFloat64}
	maxs := [2]float64{-math.MaxFloat64, -math.MaxFloat64}

	axes := [2]struct {
		vec   [3]float32
		shift float32
	}{
		{ti.S, ti.ShiftS},
		{ti.T, ti.ShiftT},
	}

	verts := m.FaceVertices(face)
	for _, v := range verts {
		for j, axis := range axes {
			val := float64(v[0])*float64(axis.vec[0]) +
				float64(v[1])*float64(axis.vec[1]) +
				float64(v[2])*float64(axis.vec[2]) +
				float64(axis.shift)
			mins[j] = math.Min(mins[j], val)
			maxs[j] = math.Max(maxs[j], val)
		}
	}

	var ext Extents
	if len(verts) == 0 {
		ext.Size = [2]int{1, 1}
		return ext
	}
	for j := range 2 {
		ext.Mins[j] = int(math.Floor(mins[j] / SampleSize))
		ext.Maxs[j] = int(math.Ceil(maxs[j] / SampleSize))
		ext.Size[j] = ext.Maxs[j] - ext.Mins[j] + 1
	}
	return ext
}

// MidPoly returns the texture-space center of the sample grid.
func (e Extents) MidPoly() (u, v float32) {
	return float32(e.Mins[0]+e.Maxs[0]) * SampleSize / 2, float32(e.Mins[1]+e.Maxs[1]) * SampleSize / 2
}

// MidTex returns the center of the sample grid in samples.
func (e Extents) MidTex() (u, v float32) {
	return float32(e.Size[0]) / 2, float32(e.Size[1]) / 2
}
