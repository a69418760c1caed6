// Package lightmap packs per-face light samples into shared atlas pages.
package lightmap

import (
	"fmt"

	"github.com/Faultbox/bspview/internal/engine/texture"
)

// DefaultAtlasSize is the edge length of an atlas page in texels.
const DefaultAtlasSize = 512

// node is a rectangle in the binary-split packing tree. A node is either a
// free leaf, a filled leaf, or split into two children.
type node struct {
	x, y, w, h  int
	left, right *node
	filled      bool
}

func (n *node) insert(w, h int) (int, int, bool) {
	if n.left != nil {
		if x, y, ok := n.left.insert(w, h); ok {
			return x, y, true
		}
		return n.right.insert(w, h)
	}

	if n.filled || w > n.w || h > n.h {
		return 0, 0, false
	}

	if w == n.w && h == n.h {
		n.filled = true
		return n.x, n.y, true
	}

	// Split along the axis with more leftover space
	if n.w-w > n.h-h {
		n.left = &node{x: n.x, y: n.y, w: w, h: n.h}
		n.right = &node{x: n.x + w, y: n.y, w: n.w - w, h: n.h}
	} else {
		n.left = &node{x: n.x, y: n.y, w: n.w, h: h}
		n.right = &node{x: n.x, y: n.y + h, w: n.w, h: n.h - h}
	}
	return n.left.insert(w, h)
}

// Page is one atlas canvas and its packing tree. Pages only grow.
type Page struct {
	Texture *texture.Texture
	root    *node
	used    int
}

// Used returns the number of texels allocated on the page.
func (p *Page) Used() int {
	return p.used
}

// Packer places rectangles on a growing list of atlas pages.
type Packer struct {
	size  int
	pages []*Page
}

// NewPacker creates a packer with one empty page. A size <= 0 selects
// DefaultAtlasSize.
func NewPacker(size int) *Packer {
	if size <= 0 {
		size = DefaultAtlasSize
	}
	p := &Packer{size: size}
	p.openPage()
	return p
}

func (p *Packer) openPage() {
	name := fmt.Sprintf("lightmap%d", len(p.pages))
	p.pages = append(p.pages, &Page{
		Texture: texture.New(name, p.size, p.size),
		root:    &node{w: p.size, h: p.size},
	})
}

// Size returns the page edge length.
func (p *Packer) Size() int {
	return p.size
}

// Place allocates a w x h rectangle. Only the most recent page is tried;
// when it is full a new page is opened and the insert retried once. Earlier
// pages are never revisited. ok is false when the rectangle does not fit an
// empty page; the page opened for the retry stays.
func (p *Packer) Place(w, h int) (page, x, y int, ok bool) {
	if w <= 0 || h <= 0 {
		return 0, 0, 0, false
	}

	page = len(p.pages) - 1
	if x, y, ok = p.pages[page].root.insert(w, h); !ok {
		p.openPage()
		page++
		if x, y, ok = p.pages[page].root.insert(w, h); !ok {
			return 0, 0, 0, false
		}
	}

	p.pages[page].used += w * h
	return page, x, y, true
}

// Blit copies RGB samples for a w x h rectangle into a page verbatim.
// A short src fills as many whole texels as it holds.
func (p *Packer) Blit(page, x, y, w, h int, src []byte) {
	dst := p.pages[page].Texture.Pix
	for row := range h {
		start := row * w * 3
		if start >= len(src) {
			return
		}
		end := min(start+w*3, len(src))
		off := ((y+row)*p.size + x) * 3
		copy(dst[off:off+(end-start)], src[start:end])
	}
}

// Pages returns all pages in creation order.
func (p *Packer) Pages() []*Page {
	return p.pages
}

// PageTexture returns the texture of page i. Page 0 always exists.
func (p *Packer) PageTexture(i int) *texture.Texture {
	if i < 0 || i >= len(p.pages) {
		return p.pages[0].Texture
	}
	return p.pages[i].Texture
}

// Upload sends every page to the GPU.
func (p *Packer) Upload(u texture.Uploader) {
	for _, page := range p.pages {
		u.UploadTexture(page.Texture)
	}
}

// Release deletes the GPU copies of every page.
func (p *Packer) Release(u texture.Uploader) {
	for _, page := range p.pages {
		u.DeleteTexture(page.Texture)
	}
}
