package gpu

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/bspview/internal/engine/texture"
)

// Recorded operations.
const (
	OpUploadTexture = "upload_texture"
	OpDeleteTexture = "delete_texture"
	OpBindSampler   = "bind_sampler"
	OpBindTexture   = "bind_texture"
	OpEnableBlend   = "enable_blend"
	OpPushModel     = "push_model"
	OpPopModel      = "pop_model"
	OpDraw          = "draw"
)

// Call is one recorded device operation.
type Call struct {
	Op      string
	Name    string
	Unit    int
	Texture *texture.Texture
	Matrix  mgl32.Mat4
	Buffer  *RecordedBuffer
}

// Recorder is a Device that keeps a log of every call instead of talking to
// a GPU. It backs headless runs and tests.
type Recorder struct {
	Calls   []Call
	Buffers []*RecordedBuffer
	nextID  uint32
	depth   int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Reset clears the call log but keeps buffers and texture handles.
func (r *Recorder) Reset() {
	r.Calls = r.Calls[:0]
}

// Filter returns the recorded calls of one operation.
func (r *Recorder) Filter(op string) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Depth returns the current model matrix stack depth.
func (r *Recorder) Depth() int {
	return r.depth
}

func (r *Recorder) UploadTexture(tex *texture.Texture) {
	r.nextID++
	tex.ID = r.nextID
	r.Calls = append(r.Calls, Call{Op: OpUploadTexture, Texture: tex})
}

func (r *Recorder) DeleteTexture(tex *texture.Texture) {
	tex.ID = 0
	r.Calls = append(r.Calls, Call{Op: OpDeleteTexture, Texture: tex})
}

func (r *Recorder) NewVertexBuffer() VertexBuffer {
	b := &RecordedBuffer{rec: r}
	r.Buffers = append(r.Buffers, b)
	return b
}

func (r *Recorder) BindSampler(name string, unit int) {
	r.Calls = append(r.Calls, Call{Op: OpBindSampler, Name: name, Unit: unit})
}

func (r *Recorder) BindTexture(unit int, tex *texture.Texture) {
	r.Calls = append(r.Calls, Call{Op: OpBindTexture, Unit: unit, Texture: tex})
}

func (r *Recorder) EnableAlphaBlending() {
	r.Calls = append(r.Calls, Call{Op: OpEnableBlend})
}

func (r *Recorder) PushModelMatrix(m mgl32.Mat4) {
	r.depth++
	r.Calls = append(r.Calls, Call{Op: OpPushModel, Matrix: m})
}

func (r *Recorder) PopModelMatrix() {
	r.depth--
	r.Calls = append(r.Calls, Call{Op: OpPopModel})
}

// Attribute is one declared vertex attribute.
type Attribute struct {
	Name string
	Size int
}

// RecordedBuffer is the VertexBuffer handed out by a Recorder.
type RecordedBuffer struct {
	rec        *Recorder
	Attributes []Attribute
	Data       []float32
	Count      int
	Uploaded   bool
	Deleted    bool
}

func (b *RecordedBuffer) AddAttribute(name string, size int) {
	b.Attributes = append(b.Attributes, Attribute{Name: name, Size: size})
}

func (b *RecordedBuffer) SetData(data []float32, count int) {
	b.Data = data
	b.Count = count
}

func (b *RecordedBuffer) Upload() {
	b.Uploaded = true
}

func (b *RecordedBuffer) Draw() {
	b.rec.Calls = append(b.rec.Calls, Call{Op: OpDraw, Buffer: b})
}

func (b *RecordedBuffer) VertexCount() int {
	return b.Count
}

func (b *RecordedBuffer) Delete() {
	b.Deleted = true
}

// Stride returns the number of floats per vertex.
func (b *RecordedBuffer) Stride() int {
	n := 0
	for _, a := range b.Attributes {
		n += a.Size
	}
	return n
}
