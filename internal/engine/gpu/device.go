// Package gpu defines the graphics device used by the map renderer and its
// OpenGL implementation.
package gpu

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/bspview/internal/engine/texture"
)

// Device is the graphics pipeline consumed by the renderer.
type Device interface {
	texture.Uploader

	// NewVertexBuffer creates an empty vertex buffer bound to the map shader.
	NewVertexBuffer() VertexBuffer

	// BindSampler assigns a sampler uniform to a texture unit.
	BindSampler(name string, unit int)

	// BindTexture binds tex to a texture unit.
	BindTexture(unit int, tex *texture.Texture)

	// EnableAlphaBlending enables src-alpha, one-minus-src-alpha blending.
	EnableAlphaBlending()

	// PushModelMatrix saves the current model matrix and multiplies it by m.
	PushModelMatrix(m mgl32.Mat4)

	// PopModelMatrix restores the model matrix saved by the matching push.
	PopModelMatrix()
}

// VertexBuffer holds interleaved float vertices drawn as a triangle list.
type VertexBuffer interface {
	// AddAttribute appends a float attribute of size components to the layout.
	AddAttribute(name string, size int)

	// SetData sets the interleaved vertex data and the vertex count.
	SetData(data []float32, count int)

	// Upload copies the data to the GPU.
	Upload()

	// Draw issues the draw call.
	Draw()

	// VertexCount returns the number of vertices set by SetData.
	VertexCount() int

	// Delete releases GPU resources.
	Delete()
}
