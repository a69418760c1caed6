// Package opengl implements the map renderer's graphics device with OpenGL 4.1 core.
package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/bspview/internal/engine/gpu"
	"github.com/Faultbox/bspview/internal/engine/shader"
	"github.com/Faultbox/bspview/internal/engine/texture"
)

var _ gpu.Device = (*Device)(nil)

// Device implements gpu.Device with OpenGL 4.1 core.
// IMPORTANT: Must be created AFTER the OpenGL context is current.
type Device struct {
	program     *shader.Program
	locModel    int32
	locViewProj int32

	model mgl32.Mat4
	stack []mgl32.Mat4

	log *zap.Logger
}

// NewDevice initializes OpenGL and compiles the map shader.
func NewDevice(log *zap.Logger) (*Device, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	program, err := shader.NewProgram(shader.BSPVertexShader, shader.BSPFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("map shader: %w", err)
	}

	d := &Device{
		program:     program,
		locModel:    program.Uniform("uModel"),
		locViewProj: program.Uniform("uViewProj"),
		model:       mgl32.Ident4(),
		log:         log,
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	program.Use()
	return d, nil
}

// BeginFrame clears the framebuffer and loads the view-projection matrix.
// The model matrix is reset to identity.
func (d *Device) BeginFrame(viewProj mgl32.Mat4, clear [3]float32) {
	gl.ClearColor(clear[0], clear[1], clear[2], 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	d.program.Use()
	gl.UniformMatrix4fv(d.locViewProj, 1, false, &viewProj[0])

	d.model = mgl32.Ident4()
	d.stack = d.stack[:0]
	d.loadModel()
}

// Viewport sets the drawing area.
func (d *Device) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

// ReadPixels returns the RGBA contents of the framebuffer, bottom row first.
func (d *Device) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels
}

// Destroy deletes the shader program.
func (d *Device) Destroy() {
	d.program.Delete()
}

// UploadTexture creates a GL texture from the RGB pixels of tex.
func (d *Device) UploadTexture(tex *texture.Texture) {
	if tex.ID != 0 || len(tex.Pix) == 0 {
		return
	}

	gl.GenTextures(1, &tex.ID)
	gl.BindTexture(gl.TEXTURE_2D, tex.ID)

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB8,
		int32(tex.Width), int32(tex.Height),
		0, gl.RGB, gl.UNSIGNED_BYTE, unsafe.Pointer(&tex.Pix[0]))

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
}

// DeleteTexture releases the GL texture of tex.
func (d *Device) DeleteTexture(tex *texture.Texture) {
	if tex.ID != 0 {
		gl.DeleteTextures(1, &tex.ID)
		tex.ID = 0
	}
}

// NewVertexBuffer creates an empty vertex buffer for the map shader.
func (d *Device) NewVertexBuffer() gpu.VertexBuffer {
	return &glVertexBuffer{program: d.program}
}

// BindSampler assigns a sampler uniform to a texture unit.
func (d *Device) BindSampler(name string, unit int) {
	d.program.Use()
	gl.Uniform1i(d.program.Uniform(name), int32(unit))
}

// BindTexture binds tex to a texture unit.
func (d *Device) BindTexture(unit int, tex *texture.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, tex.ID)
}

// EnableAlphaBlending enables standard alpha blending.
func (d *Device) EnableAlphaBlending() {
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
}

// PushModelMatrix saves the model matrix and multiplies it by m.
func (d *Device) PushModelMatrix(m mgl32.Mat4) {
	d.stack = append(d.stack, d.model)
	d.model = d.model.Mul4(m)
	d.loadModel()
}

// PopModelMatrix restores the previous model matrix.
func (d *Device) PopModelMatrix() {
	if len(d.stack) == 0 {
		d.log.Warn("model matrix stack underflow")
		return
	}
	d.model = d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	d.loadModel()
}

func (d *Device) loadModel() {
	gl.UniformMatrix4fv(d.locModel, 1, false, &d.model[0])
}

type attribute struct {
	name string
	size int
}

type glVertexBuffer struct {
	program *shader.Program
	attrs   []attribute
	stride  int // Floats per vertex
	data    []float32
	count   int
	vao     uint32
	vbo     uint32
}

func (b *glVertexBuffer) AddAttribute(name string, size int) {
	b.attrs = append(b.attrs, attribute{name: name, size: size})
	b.stride += size
}

func (b *glVertexBuffer) SetData(data []float32, count int) {
	b.data = data
	b.count = count
}

func (b *glVertexBuffer) Upload() {
	if b.count == 0 || len(b.data) == 0 {
		return
	}

	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(b.data)*4, unsafe.Pointer(&b.data[0]), gl.STATIC_DRAW)

	offset := 0
	for _, a := range b.attrs {
		// Attributes the shader does not use have no location
		if loc := b.program.Attrib(a.name); loc >= 0 {
			gl.VertexAttribPointerWithOffset(uint32(loc), int32(a.size), gl.FLOAT, false, int32(b.stride*4), uintptr(offset*4))
			gl.EnableVertexAttribArray(uint32(loc))
		}
		offset += a.size
	}

	gl.BindVertexArray(0)
}

func (b *glVertexBuffer) Draw() {
	if b.vao == 0 {
		return
	}
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(b.count))
	gl.BindVertexArray(0)
}

func (b *glVertexBuffer) VertexCount() int {
	return b.count
}

func (b *glVertexBuffer) Delete() {
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
		b.vbo = 0
	}
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
}
