package bsp

import (
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/bspview/pkg/encoding"
)

// Entity is a key/value block from the entity lump.
type Entity struct {
	Properties map[string]string
	Keys       []string // Keys in file order
}

// Get returns the value for key, or "".
func (e *Entity) Get(key string) string {
	return e.Properties[key]
}

// Classname returns the entity class.
func (e *Entity) Classname() string {
	return e.Properties["classname"]
}

// ModelIndex returns N for a brush model reference "*N", or -1.
func (e *Entity) ModelIndex() int {
	model := e.Properties["model"]
	if !strings.HasPrefix(model, "*") {
		return -1
	}
	idx, err := strconv.Atoi(model[1:])
	if err != nil || idx < 0 {
		return -1
	}
	return idx
}

// Origin returns the "origin" key in map coordinates, or zero.
func (e *Entity) Origin() mgl32.Vec3 {
	var v mgl32.Vec3
	fields := strings.Fields(e.Properties["origin"])
	for i := 0; i < len(fields) && i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return mgl32.Vec3{}
		}
		v[i] = float32(f)
	}
	return v
}

// WADs returns the base names listed in the "wad" key, in order.
// Entries are separated by ';' and may carry full compile-time paths.
func (e *Entity) WADs() []string {
	var names []string
	for _, part := range strings.Split(e.Properties["wad"], ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		names = append(names, encoding.BaseName(part))
	}
	return names
}

// ParseEntities parses the entity lump text. Malformed trailing input is
// ignored; entities parsed before it are kept.
func ParseEntities(data []byte) []*Entity {
	text := encoding.Windows1252ToUTF8(data)
	tok := &tokenizer{s: text}

	var entities []*Entity
	for {
		t, ok := tok.next()
		if !ok {
			break
		}
		if t != "{" {
			continue
		}

		ent := &Entity{Properties: make(map[string]string)}
		closed := false
		for {
			key, ok := tok.next()
			if !ok {
				break
			}
			if key == "}" {
				closed = true
				break
			}
			value, ok := tok.next()
			if !ok || value == "}" {
				break
			}
			if _, dup := ent.Properties[key]; !dup {
				ent.Keys = append(ent.Keys, key)
			}
			ent.Properties[key] = value
		}
		if !closed {
			break
		}
		entities = append(entities, ent)
	}
	return entities
}

type tokenizer struct {
	s   string
	pos int
}

// next returns a brace or the contents of a quoted string.
func (t *tokenizer) next() (string, bool) {
	for t.pos < len(t.s) {
		c := t.s[t.pos]
		switch {
		case c == '{' || c == '}':
			t.pos++
			return string(c), true
		case c == '"':
			end := strings.IndexByte(t.s[t.pos+1:], '"')
			if end < 0 {
				t.pos = len(t.s)
				return "", false
			}
			tok := t.s[t.pos+1 : t.pos+1+end]
			t.pos += end + 2
			return tok, true
		case c == 0:
			t.pos = len(t.s)
			return "", false
		default:
			t.pos++
		}
	}
	return "", false
}
