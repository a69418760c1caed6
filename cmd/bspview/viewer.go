package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/bspview/internal/config"
	"github.com/Faultbox/bspview/internal/engine/camera"
	"github.com/Faultbox/bspview/internal/engine/debug"
	"github.com/Faultbox/bspview/internal/engine/gpu/opengl"
	"github.com/Faultbox/bspview/internal/engine/input"
	"github.com/Faultbox/bspview/internal/engine/renderer"
	"github.com/Faultbox/bspview/internal/engine/window"
	"github.com/Faultbox/bspview/pkg/bsp"
)

// Viewer owns the window, the GL device, and the map renderer.
type Viewer struct {
	cfg      *config.Config
	log      *zap.Logger
	window   *window.Window
	input    *input.Input
	device   *opengl.Device
	renderer *renderer.Renderer
	camera   *camera.OrbitCamera
	shots    *debug.ScreenshotCapture

	mins, maxs mgl32.Vec3 // World bounds in render space
	title      string
	running    bool
}

// NewViewer opens the map at path and prepares it for drawing.
func NewViewer(cfg *config.Config, path string, log *zap.Logger) (*Viewer, error) {
	m, err := bsp.Load(path)
	if err != nil {
		return nil, err
	}
	log.Info("map loaded",
		zap.String("name", m.Name),
		zap.Int("faces", len(m.Faces)),
		zap.Int("models", len(m.Models)),
		zap.Int("textures", len(m.Textures)),
	)

	v := &Viewer{
		cfg:    cfg,
		log:    log,
		input:  input.New(),
		camera: camera.NewOrbitCamera(),
		shots:  debug.NewScreenshotCapture("screenshots", m.Name),
		title:  "bspview - " + m.Name,
	}

	v.shots.SetFormat("." + strings.ToLower(cfg.Render.ScreenshotFormat))

	v.window, err = window.New(window.Config{
		Title:      v.title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		Logger:     log.Named("window"),
	})
	if err != nil {
		return nil, err
	}

	v.device, err = opengl.NewDevice(log.Named("gl"))
	if err != nil {
		v.window.Close()
		return nil, err
	}

	v.renderer = renderer.New(m, v.device, renderer.Options{
		Logger:        log.Named("renderer"),
		GamePath:      cfg.Game.Path,
		SearchDirs:    cfg.Game.SearchDirs,
		AtlasSize:     cfg.Render.AtlasSize,
		AtlasDumpPath: cfg.Render.AtlasDump,
	})

	if len(m.Models) > 0 {
		// Remap map bounds (x, y, z) to render space (x, z, -y)
		lo, hi := m.Models[0].Mins, m.Models[0].Maxs
		v.mins = mgl32.Vec3{lo.X(), lo.Z(), -hi.Y()}
		v.maxs = mgl32.Vec3{hi.X(), hi.Z(), -lo.Y()}
	}
	v.camera.FOV = cfg.Camera.FOV
	v.camera.FitToBounds(v.mins, v.maxs)

	return v, nil
}

// Run executes the frame loop until the window closes or Escape is pressed.
func (v *Viewer) Run() {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting frame loop")

	for v.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()
		v.update(dt)
		v.render()
		v.window.SwapBuffers()

		frameCount++
		if elapsed := time.Since(fpsTimer); elapsed >= time.Second {
			v.updateTitle(float64(frameCount) / elapsed.Seconds())
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
}

func (v *Viewer) handleEvents() {
	if v.input.IsKeyPressed(sdl.SCANCODE_ESCAPE) {
		v.running = false
	}
	if v.input.IsKeyPressed(sdl.SCANCODE_F12) {
		v.screenshot()
	}
	if v.input.IsKeyPressed(sdl.SCANCODE_F5) {
		v.saveSettings()
	}
	if v.input.IsKeyPressed(sdl.SCANCODE_HOME) {
		v.camera.FitToBounds(v.mins, v.maxs)
	}
	if v.input.IsKeyPressed(sdl.SCANCODE_PAGEUP) {
		v.adjustFOV(fovStep)
	}
	if v.input.IsKeyPressed(sdl.SCANCODE_PAGEDOWN) {
		v.adjustFOV(-fovStep)
	}

	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventMouseMove:
			if v.input.IsButtonDown(sdl.BUTTON_LEFT) {
				v.camera.HandleDrag(float32(event.DeltaX), float32(event.DeltaY))
			}
		case input.EventMouseWheel:
			v.camera.HandleZoom(float32(event.DeltaY))
		}
	}
}

// update moves the camera center with WASD and QE.
func (v *Viewer) update(dt float32) {
	var forward, right, up float32
	if v.input.IsKeyDown(sdl.SCANCODE_W) {
		forward++
	}
	if v.input.IsKeyDown(sdl.SCANCODE_S) {
		forward--
	}
	if v.input.IsKeyDown(sdl.SCANCODE_D) {
		right++
	}
	if v.input.IsKeyDown(sdl.SCANCODE_A) {
		right--
	}
	if v.input.IsKeyDown(sdl.SCANCODE_E) {
		up++
	}
	if v.input.IsKeyDown(sdl.SCANCODE_Q) {
		up--
	}
	if forward == 0 && right == 0 && up == 0 {
		return
	}

	step := v.cfg.Camera.MoveSpeed * dt
	if v.input.IsKeyDown(sdl.SCANCODE_LSHIFT) {
		step *= 4
	}
	v.camera.HandleMovement(forward, right, up, step)
}

func (v *Viewer) render() {
	w, h := v.window.GetDrawableSize()
	v.device.Viewport(w, h)

	aspect := float32(1)
	if h > 0 {
		aspect = float32(w) / float32(h)
	}
	v.device.BeginFrame(v.camera.ViewProjection(aspect), v.cfg.Render.ClearColor)
	v.renderer.RenderFrame()
}

func (v *Viewer) screenshot() {
	w, h := v.window.GetDrawableSize()
	path, err := v.shots.CaptureFromPixels(v.device.ReadPixels(w, h), w, h)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
}

const (
	fovStep = 5
	minFOV  = 20
	maxFOV  = 150
)

func (v *Viewer) adjustFOV(delta float32) {
	v.camera.FOV = min(max(v.camera.FOV+delta, minFOV), maxFOV)
	v.log.Debug("fov changed", zap.Float32("fov", v.camera.FOV))
}

// saveSettings stores the current field of view in the config file.
func (v *Viewer) saveSettings() {
	v.cfg.Camera.FOV = v.camera.FOV
	if err := v.cfg.Save(); err != nil {
		v.log.Warn("failed to save config", zap.String("path", v.cfg.Path()), zap.Error(err))
		return
	}
	v.log.Info("config saved", zap.String("path", v.cfg.Path()))
}

func (v *Viewer) updateTitle(fps float64) {
	s := v.renderer.Stats()
	v.window.SetTitle(fmt.Sprintf("%s | %.0f fps | %d groups | %d verts | %d atlas pages",
		v.title, fps, s.Groups, s.Vertices, s.AtlasPages))
}

// Close releases GPU resources and the window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.renderer != nil {
		v.renderer.Destroy()
	}
	if v.device != nil {
		v.device.Destroy()
	}
	if v.window != nil {
		v.window.Close()
	}
}
