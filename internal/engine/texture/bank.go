package texture

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/bspview/pkg/bsp"
	"github.com/Faultbox/bspview/pkg/wad"
)

// DefaultSearchDirs are the game subdirectories searched for WAD archives.
var DefaultSearchDirs = []string{"svencoop", "svencoop_addon", "svencoop_downloads", "svencoop_hd"}

// Source tells where a material's pixels came from.
type Source uint8

const (
	SourcePlaceholder Source = iota
	SourceEmbedded
	SourceWAD
)

func (s Source) String() string {
	switch s {
	case SourceEmbedded:
		return "embedded"
	case SourceWAD:
		return "wad"
	default:
		return "placeholder"
	}
}

// Archive is a texture archive searched for materials the map does not embed.
type Archive interface {
	HasTexture(name string) bool
	ReadTexture(name string) (*wad.MipTex, error)
}

// BankOptions configures material loading.
type BankOptions struct {
	Logger     *zap.Logger
	GamePath   string   // Game installation root
	SearchDirs []string // Subdirectories of GamePath, searched in order; nil = DefaultSearchDirs
}

// Bank owns one decoded texture per map material.
type Bank struct {
	textures []*Texture
	sources  []Source
	white    *Texture
	log      *zap.Logger
}

// NewBank decodes every material of m. Materials with embedded pixels are
// decoded from the map; the rest are looked up in the WAD archives listed by
// worldspawn. Anything that cannot be found resolves to the white placeholder.
func NewBank(m *bsp.Map, opts BankOptions) *Bank {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	b := &Bank{
		white: NewWhite(),
		log:   log,
	}

	opened := openArchives(m, opts, log)
	archives := make([]Archive, len(opened))
	for i, a := range opened {
		archives[i] = a
	}

	b.load(m, archives)

	for _, a := range opened {
		a.Close()
	}
	return b
}

// NewBankFromArchives decodes every material of m, searching the given
// archives instead of the game directories.
func NewBankFromArchives(m *bsp.Map, archives []Archive, log *zap.Logger) *Bank {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Bank{
		white: NewWhite(),
		log:   log,
	}
	b.load(m, archives)
	return b
}

func (b *Bank) load(m *bsp.Map, archives []Archive) {
	b.textures = make([]*Texture, len(m.Textures))
	b.sources = make([]Source, len(m.Textures))

	for i := range m.Textures {
		b.textures[i], b.sources[i] = b.loadMaterial(&m.Textures[i], i, archives)
	}

	embedded, fromWAD, missing := b.Counts()
	b.log.Info("loaded textures",
		zap.Int("embedded", embedded),
		zap.Int("wad", fromWAD),
		zap.Int("missing", missing),
	)
}

func (b *Bank) loadMaterial(entry *bsp.MipTexEntry, index int, archives []Archive) (*Texture, Source) {
	if entry.Missing {
		b.log.Warn("texture slot empty", zap.Int("index", index))
		return b.white, SourcePlaceholder
	}

	name := entry.Name()
	if entry.Header.HasPixels() {
		mt, err := wad.ParseMipTex(entry.Block)
		if err != nil {
			b.log.Warn("bad embedded texture", zap.String("name", name), zap.Error(err))
			return b.white, SourcePlaceholder
		}
		return Decode(mt), SourceEmbedded
	}

	for _, a := range archives {
		if !a.HasTexture(name) {
			continue
		}
		mt, err := a.ReadTexture(name)
		if err != nil {
			b.log.Warn("failed to read texture", zap.String("name", name), zap.Error(err))
			continue
		}
		return Decode(mt), SourceWAD
	}

	b.log.Warn("texture not found", zap.String("name", name))
	return b.white, SourcePlaceholder
}

// openArchives opens the WADs named by worldspawn. Each name is looked up in
// the search dirs in order and the first existing file wins.
func openArchives(m *bsp.Map, opts BankOptions, log *zap.Logger) []*wad.Archive {
	ws := m.Worldspawn()
	if ws == nil {
		return nil
	}

	dirs := opts.SearchDirs
	if dirs == nil {
		dirs = DefaultSearchDirs
	}

	var archives []*wad.Archive
	for _, name := range ws.WADs() {
		path := findWAD(opts.GamePath, dirs, name)
		if path == "" {
			log.Warn("missing WAD", zap.String("name", name))
			continue
		}

		log.Info("loading WAD", zap.String("path", path))
		a, err := wad.Open(path)
		if err != nil {
			log.Warn("failed to open WAD", zap.String("path", path), zap.Error(err))
			continue
		}
		archives = append(archives, a)
	}
	return archives
}

func findWAD(gamePath string, dirs []string, name string) string {
	for _, dir := range dirs {
		path := filepath.Join(gamePath, dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Resolve returns the texture of material i. Out-of-range indices resolve
// to the placeholder.
func (b *Bank) Resolve(i int) *Texture {
	if i < 0 || i >= len(b.textures) {
		return b.white
	}
	return b.textures[i]
}

// Source returns where material i was loaded from.
func (b *Bank) Source(i int) Source {
	if i < 0 || i >= len(b.sources) {
		return SourcePlaceholder
	}
	return b.sources[i]
}

// White returns the shared white placeholder.
func (b *Bank) White() *Texture {
	return b.white
}

// Len returns the number of materials.
func (b *Bank) Len() int {
	return len(b.textures)
}

// Counts returns how many materials came from each source.
func (b *Bank) Counts() (embedded, fromWAD, missing int) {
	for _, s := range b.sources {
		switch s {
		case SourceEmbedded:
			embedded++
		case SourceWAD:
			fromWAD++
		default:
			missing++
		}
	}
	return embedded, fromWAD, missing
}

// Upload sends the placeholder and every decoded texture to the GPU.
func (b *Bank) Upload(u Uploader) {
	u.UploadTexture(b.white)
	for _, tex := range b.textures {
		if tex != b.white {
			u.UploadTexture(tex)
		}
	}
}

// Release deletes the GPU copies created by Upload.
func (b *Bank) Release(u Uploader) {
	for _, tex := range b.textures {
		if tex != b.white {
			u.DeleteTexture(tex)
		}
	}
	u.DeleteTexture(b.white)
}
