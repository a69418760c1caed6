// Package encoding provides text encoding utilities for GoldSrc file formats.
package encoding

import (
	"bytes"
	"path"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Windows1252ToUTF8 converts Windows-1252 encoded bytes to a UTF-8 string.
// Returns the original bytes as a string if conversion fails.
func Windows1252ToUTF8(data []byte) string {
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// FixedStringToUTF8 converts a fixed-size, null-terminated name field
// (texture and lump names) to a UTF-8 string.
func FixedStringToUTF8(data []byte) string {
	if idx := bytes.IndexByte(data, 0); idx >= 0 {
		data = data[:idx]
	}
	return Windows1252ToUTF8(data)
}

// UTF8ToFixedString encodes s into a fixed-size Windows-1252 field padded
// with null bytes. Names longer than size-1 are truncated so the field stays
// null-terminated.
func UTF8ToFixedString(s string, size int) []byte {
	result := make([]byte, size)
	encoded, _, err := transform.Bytes(charmap.Windows1252.NewEncoder(), []byte(s))
	if err != nil {
		encoded = []byte(s)
	}
	if len(encoded) > size-1 {
		encoded = encoded[:size-1]
	}
	copy(result, encoded)
	return result
}

// NormalizeTextureName lowercases a texture name and strips any directory
// and extension, so "Textures\\C1A0_WALL.bmp" and "c1a0_wall" compare equal.
func NormalizeTextureName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return strings.ToLower(name)
}

// BaseName returns the last element of a path written with either slash
// style. Map files store WAD references as absolute Windows paths.
func BaseName(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return path.Base(p)
}
