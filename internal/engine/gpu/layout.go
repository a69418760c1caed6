package gpu

import "strconv"

// Attribute and sampler names shared by the map shader and the vertex layout.
const (
	AttribTex      = "vTex"
	AttribOpacity  = "vOpacity"
	AttribPosition = "vPosition"
	SamplerTex     = "sTex"
)

// AttribLightmapTex returns the attribute name of light style slot s.
func AttribLightmapTex(s int) string {
	return "vLightmapTex" + strconv.Itoa(s)
}

// SamplerLightmapTex returns the sampler name of light style slot s.
func SamplerLightmapTex(s int) string {
	return "sLightmapTex" + strconv.Itoa(s)
}
