package renderer

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/bspview/internal/engine/gpu"
	"github.com/Faultbox/bspview/pkg/bsp"
	"github.com/Faultbox/bspview/pkg/wad"
)

// testMap has a world model with a lit quad and a special triangle, and a
// brush sub-model with one unlit quad placed by a func_wall.
func testMap(t *testing.T) *bsp.Map {
	t.Helper()

	mt := &wad.MipTex{Name: "A", Width: 16, Height: 16, Indices: make([]byte, 256)}
	block := wad.EncodeMipTex(mt)
	header, err := wad.ParseMipTexHeader(block)
	if err != nil {
		t.Fatal(err)
	}

	return &bsp.Map{
		Entities: []*bsp.Entity{
			{Properties: map[string]string{"classname": "worldspawn"}},
			{Properties: map[string]string{"classname": "func_wall", "model": "*1", "origin": "10 20 30"}},
			{Properties: map[string]string{"classname": "func_door", "model": "*7"}},
			{Properties: map[string]string{"classname": "func_illusionary", "model": "*0", "origin": "5 5 5"}},
			{Properties: map[string]string{"classname": "cycler", "model": "models/barney.mdl"}},
		},
		Vertices: []mgl32.Vec3{{0, 0, 0}, {64, 0, 0}, {64, 64, 0}, {0, 64, 0}},
		Edges: []bsp.Edge{
			{}, {V: [2]uint16{0, 1}}, {V: [2]uint16{1, 2}}, {V: [2]uint16{2, 3}}, {V: [2]uint16{3, 0}},
			{V: [2]uint16{2, 0}},
		},
		SurfEdges: []int32{1, 2, 3, 4, 1, 2, 5},
		TexInfos: []bsp.TexInfo{
			{S: mgl32.Vec3{1, 0, 0}, T: mgl32.Vec3{0, 1, 0}, MipTex: 0},
			{S: mgl32.Vec3{1, 0, 0}, T: mgl32.Vec3{0, 1, 0}, MipTex: 0, Flags: bsp.TexSpecial},
		},
		Faces: []bsp.Face{
			{FirstEdge: 0, NumEdges: 4, TexInfo: 0, Styles: [4]uint8{0, 255, 255, 255}, LightOffset: 0},
			{FirstEdge: 4, NumEdges: 3, TexInfo: 1, Styles: [4]uint8{255, 255, 255, 255}, LightOffset: -1},
			{FirstEdge: 0, NumEdges: 4, TexInfo: 0, Styles: [4]uint8{255, 255, 255, 255}, LightOffset: -1},
		},
		LightData: make([]byte, 5*5*3),
		Textures:  []bsp.MipTexEntry{{Header: *header, Block: block}},
		Models: []bsp.Model{
			{FirstFace: 0, NumFaces: 2},
			{FirstFace: 2, NumFaces: 1},
		},
	}
}

func TestNew_Stats(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	dev := gpu.NewRecorder()
	r := New(testMap(t), dev, Options{Logger: zap.New(core), AtlasSize: 64})

	want := Stats{
		Models:     2,
		Groups:     3,
		Vertices:   15,
		AtlasPages: 1,
		Lightmaps:  1,
		Textures:   1,
		Missing:    0,
		Entities:   1,
	}
	if got := r.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}

	if n := logs.FilterMessage("added render groups").Len(); n != 2 {
		t.Errorf("expected one group log per model, got %d", n)
	}

	// White placeholder, material A, atlas page 0
	if n := len(dev.Filter(gpu.OpUploadTexture)); n != 3 {
		t.Errorf("expected 3 texture uploads, got %d", n)
	}
	if len(dev.Buffers) != 3 {
		t.Errorf("expected 3 vertex buffers, got %d", len(dev.Buffers))
	}
}

func TestNew_BindsSamplers(t *testing.T) {
	dev := gpu.NewRecorder()
	New(testMap(t), dev, Options{AtlasSize: 64})

	want := []gpu.Call{
		{Op: gpu.OpBindSampler, Name: "sTex", Unit: 0},
		{Op: gpu.OpBindSampler, Name: "sLightmapTex0", Unit: 1},
		{Op: gpu.OpBindSampler, Name: "sLightmapTex1", Unit: 2},
		{Op: gpu.OpBindSampler, Name: "sLightmapTex2", Unit: 3},
		{Op: gpu.OpBindSampler, Name: "sLightmapTex3", Unit: 4},
	}
	got := dev.Filter(gpu.OpBindSampler)
	if len(got) != len(want) {
		t.Fatalf("expected %d sampler bindings, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Name != want[i].Name || got[i].Unit != want[i].Unit {
			t.Errorf("binding %d = %s->%d, want %s->%d", i, got[i].Name, got[i].Unit, want[i].Name, want[i].Unit)
		}
	}
}

func TestNew_Entities(t *testing.T) {
	r := New(testMap(t), gpu.NewRecorder(), Options{AtlasSize: 64})

	entities := r.Entities()
	if len(entities) != 1 {
		t.Fatalf("expected only the func_wall, got %d entities", len(entities))
	}
	for _, e := range entities {
		if e.ModelIndex == 0 {
			t.Error("entity referencing the world model should be skipped")
		}
	}
	if entities[0].ModelIndex != 1 {
		t.Errorf("ModelIndex = %d, want 1", entities[0].ModelIndex)
	}
	want := mgl32.Translate3D(10, 30, -20)
	if !entities[0].Transform.ApproxEqual(want) {
		t.Errorf("Transform = %v, want %v", entities[0].Transform, want)
	}
}

func TestRenderFrame_PassOrder(t *testing.T) {
	dev := gpu.NewRecorder()
	r := New(testMap(t), dev, Options{AtlasSize: 64})
	models := r.Models()
	dev.Reset()

	r.RenderFrame()

	if len(dev.Calls) == 0 || dev.Calls[0].Op != gpu.OpEnableBlend {
		t.Fatal("blending should be enabled before drawing")
	}

	draws := dev.Filter(gpu.OpDraw)
	wantBuffers := []gpu.VertexBuffer{
		models[0].Groups[0].Buffer, // world quad
		models[1].Groups[0].Buffer, // func_wall quad
		models[0].Groups[1].Buffer, // world special triangle
	}
	if len(draws) != len(wantBuffers) {
		t.Fatalf("expected %d draws, got %d", len(wantBuffers), len(draws))
	}
	for i, d := range draws {
		if gpu.VertexBuffer(d.Buffer) != wantBuffers[i] {
			t.Errorf("draw %d used the wrong buffer", i)
		}
	}

	pushes := dev.Filter(gpu.OpPushModel)
	if len(pushes) != 2 || len(dev.Filter(gpu.OpPopModel)) != 2 {
		t.Errorf("expected one push/pop per entity per pass, got %d pushes", len(pushes))
	}
	if dev.Depth() != 0 {
		t.Errorf("model matrix stack depth = %d after frame", dev.Depth())
	}
	for _, p := range pushes {
		if !p.Matrix.ApproxEqual(mgl32.Translate3D(10, 30, -20)) {
			t.Errorf("unexpected entity matrix %v", p.Matrix)
		}
	}
}

func TestRenderFrame_BindsTexturesBeforeDraw(t *testing.T) {
	dev := gpu.NewRecorder()
	r := New(testMap(t), dev, Options{AtlasSize: 64})
	dev.Reset()

	r.RenderFrame()

	page0 := r.Atlas().PageTexture(0)
	white := r.Textures().White()

	var units []int
	for _, c := range dev.Calls {
		switch c.Op {
		case gpu.OpBindTexture:
			units = append(units, c.Unit)
		case gpu.OpDraw:
			if len(units) != 5 {
				t.Fatalf("expected 5 texture bindings before draw, got %v", units)
			}
			for i, u := range units {
				if u != i {
					t.Errorf("binding %d went to unit %d", i, u)
				}
			}
			units = nil
		}
	}

	// The special triangle is drawn last with the placeholder in slot 0.
	binds := dev.Filter(gpu.OpBindTexture)
	last := binds[len(binds)-5:]
	if last[0].Texture != r.Textures().Resolve(0) {
		t.Error("unit 0 should hold the material")
	}
	if last[1].Texture != white {
		t.Error("special face slot 0 should bind the placeholder")
	}
	for _, b := range last[2:] {
		if b.Texture != page0 {
			t.Errorf("unused slot on unit %d should bind atlas page 0", b.Unit)
		}
	}
}

func TestRenderFrame_Empty(t *testing.T) {
	dev := gpu.NewRecorder()
	r := New(&bsp.Map{}, dev, Options{})
	dev.Reset()

	r.RenderFrame()

	if len(dev.Calls) != 0 {
		t.Errorf("map without models should issue no calls, got %d", len(dev.Calls))
	}
}

func TestNew_AtlasDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlas.png")
	New(testMap(t), gpu.NewRecorder(), Options{AtlasSize: 64, AtlasDumpPath: path})

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("atlas image not written: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("atlas image is not a PNG: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 64, 64) {
		t.Errorf("unexpected atlas bounds %v", img.Bounds())
	}
}

func TestNew_AtlasDumpFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	core, logs := observer.New(zapcore.WarnLevel)
	r := New(testMap(t), gpu.NewRecorder(), Options{
		Logger:        zap.New(core),
		AtlasSize:     64,
		AtlasDumpPath: filepath.Join(blocker, "atlas.png"),
	})

	if logs.FilterMessage("failed to write atlas image").Len() != 1 {
		t.Error("expected a warning for the unwritable atlas path")
	}
	if r.Stats().Groups != 3 {
		t.Error("a failed dump should not affect loading")
	}
}

func TestDestroy(t *testing.T) {
	dev := gpu.NewRecorder()
	r := New(testMap(t), dev, Options{AtlasSize: 64})

	r.Destroy()
	r.Destroy()

	for i, b := range dev.Buffers {
		if !b.Deleted {
			t.Errorf("buffer %d not deleted", i)
		}
	}
	uploads := len(dev.Filter(gpu.OpUploadTexture))
	if deletes := len(dev.Filter(gpu.OpDeleteTexture)); deletes != uploads {
		t.Errorf("deleted %d textures, uploaded %d", deletes, uploads)
	}
}
