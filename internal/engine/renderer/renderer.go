// Package renderer draws a GoldSrc map: it loads materials, packs
// lightmaps, batches faces, and issues the per-frame draw calls.
package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/bspview/internal/engine/batch"
	"github.com/Faultbox/bspview/internal/engine/debug"
	"github.com/Faultbox/bspview/internal/engine/gpu"
	"github.com/Faultbox/bspview/internal/engine/lightmap"
	"github.com/Faultbox/bspview/internal/engine/mesh"
	"github.com/Faultbox/bspview/internal/engine/texture"
	"github.com/Faultbox/bspview/pkg/bsp"
)

// DefaultAtlasDumpPath is where atlas page 0 is written when enabled.
const DefaultAtlasDumpPath = "atlas.png"

// Options configures renderer construction.
type Options struct {
	Logger        *zap.Logger
	GamePath      string   // Game installation root for WAD lookup
	SearchDirs    []string // WAD search dirs under GamePath; nil = texture.DefaultSearchDirs
	AtlasSize     int      // Lightmap page edge; 0 = lightmap.DefaultAtlasSize
	AtlasDumpPath string   // Image written from atlas page 0; "" disables
}

// Entity places a brush sub-model in the world.
type Entity struct {
	ModelIndex int
	Transform  mgl32.Mat4
}

// Stats summarizes what was built at load time.
type Stats struct {
	Models     int
	Groups     int
	Vertices   int
	AtlasPages int
	Lightmaps  int
	Textures   int
	Missing    int
	Entities   int
}

// Renderer owns every GPU resource of one map.
type Renderer struct {
	dev      gpu.Device
	bank     *texture.Bank
	atlas    *lightmap.Atlas
	models   []*batch.Model
	entities []Entity
	stats    Stats
	log      *zap.Logger
}

// New precomputes everything needed to draw m. Missing textures and
// oversized lightmaps degrade to placeholders and never fail construction.
func New(m *bsp.Map, dev gpu.Device, opts Options) *Renderer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := &Renderer{dev: dev, log: log}

	r.bank = texture.NewBank(m, texture.BankOptions{
		Logger:     log,
		GamePath:   opts.GamePath,
		SearchDirs: opts.SearchDirs,
	})
	r.bank.Upload(dev)

	r.atlas = lightmap.Build(m, lightmap.Options{Size: opts.AtlasSize, Logger: log})
	r.atlas.Upload(dev)
	if opts.AtlasDumpPath != "" {
		if err := debug.DumpTexture(opts.AtlasDumpPath, r.atlas.PageTexture(0)); err != nil {
			log.Warn("failed to write atlas image", zap.String("path", opts.AtlasDumpPath), zap.Error(err))
		}
	}

	builder := mesh.NewBuilder(m, r.bank, r.atlas, log)
	r.models = make([]*batch.Model, len(m.Models))
	for i := range m.Models {
		b := batch.NewBatcher()
		for _, f := range builder.BuildModel(i) {
			b.Add(f)
		}
		r.models[i] = b.Finalize(dev)
		log.Debug("added render groups",
			zap.Int("model", i),
			zap.Int("groups", len(r.models[i].Groups)),
		)
	}

	r.entities = loadEntities(m, len(r.models))

	dev.BindSampler(gpu.SamplerTex, 0)
	for s := range bsp.MaxLightStyles {
		dev.BindSampler(gpu.SamplerLightmapTex(s), s+1)
	}

	r.stats = r.computeStats()
	log.Info("map ready",
		zap.Int("models", r.stats.Models),
		zap.Int("groups", r.stats.Groups),
		zap.Int("vertices", r.stats.Vertices),
		zap.Int("atlas_pages", r.stats.AtlasPages),
		zap.Int("entities", r.stats.Entities),
	)
	return r
}

// loadEntities keeps the entities that reference an existing sub-model.
// Model 0 is the world and is drawn once on its own, so entities pointing at
// it are dropped. The origin is remapped like vertex positions.
func loadEntities(m *bsp.Map, modelCount int) []Entity {
	var entities []Entity
	for _, ent := range m.Entities {
		idx := ent.ModelIndex()
		if idx <= 0 || idx >= modelCount {
			continue
		}
		o := ent.Origin()
		entities = append(entities, Entity{
			ModelIndex: idx,
			Transform:  mgl32.Translate3D(o[0], o[2], -o[1]),
		})
	}
	return entities
}

func (r *Renderer) computeStats() Stats {
	s := Stats{
		Models:     len(r.models),
		AtlasPages: len(r.atlas.Pages()),
		Lightmaps:  r.atlas.Placed,
		Textures:   r.bank.Len(),
		Entities:   len(r.entities),
	}
	_, _, s.Missing = r.bank.Counts()
	for _, model := range r.models {
		s.Groups += len(model.Groups)
		s.Vertices += model.VertexCount()
	}
	return s
}

// RenderFrame draws the world and every entity model: opaque groups first,
// then transparent ones.
func (r *Renderer) RenderFrame() {
	if len(r.models) == 0 {
		return
	}

	r.dev.EnableAlphaBlending()

	for pass := range 2 {
		transparent := pass == 1

		r.drawModel(0, transparent)

		for _, ent := range r.entities {
			r.dev.PushModelMatrix(ent.Transform)
			r.drawModel(ent.ModelIndex, transparent)
			r.dev.PopModelMatrix()
		}
	}
}

func (r *Renderer) drawModel(idx int, transparent bool) {
	for _, g := range r.models[idx].Groups {
		if g.Key.Transparent != transparent {
			continue
		}

		r.dev.BindTexture(0, g.Key.Texture)
		for s, page := range g.Key.Lightmaps {
			r.dev.BindTexture(s+1, page)
		}
		g.Buffer.Draw()
	}
}

// Destroy releases every GPU resource. The renderer must not be used
// afterwards.
func (r *Renderer) Destroy() {
	for _, model := range r.models {
		model.Release()
	}
	r.models = nil
	r.entities = nil

	if r.bank != nil {
		r.bank.Release(r.dev)
		r.bank = nil
	}
	if r.atlas != nil {
		r.atlas.Release(r.dev)
		r.atlas = nil
	}
}

// Stats returns load-time statistics.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Models returns the render models indexed like the map's sub-models.
func (r *Renderer) Models() []*batch.Model {
	return r.models
}

// Entities returns the drawable entities.
func (r *Renderer) Entities() []Entity {
	return r.entities
}

// Atlas returns the lightmap atlas.
func (r *Renderer) Atlas() *lightmap.Atlas {
	return r.atlas
}

// Textures returns the material bank.
func (r *Renderer) Textures() *texture.Bank {
	return r.bank
}
