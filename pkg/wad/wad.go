// Package wad provides reading functionality for GoldSrc WAD3 texture archives.
package wad

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Faultbox/bspview/pkg/encoding"
)

const wadMagic = "WAD3"

// Lump types stored in a WAD3 directory.
const (
	TypePalette = 0x40
	TypeQPic    = 0x42
	TypeMipTex  = 0x43
	TypeFont    = 0x46
)

const dirEntrySize = 32

// WAD format errors.
var (
	ErrInvalidMagic     = errors.New("invalid WAD magic: expected 'WAD3'")
	ErrTruncatedData    = errors.New("truncated WAD data")
	ErrTextureNotFound  = errors.New("texture not found")
	ErrNoPixelData      = errors.New("miptex has no pixel data")
	ErrUnsupportedEntry = errors.New("unsupported WAD entry")
)

// Header contains the WAD3 file header.
type Header struct {
	Magic     [4]byte
	NumDirs   int32
	DirOffset int32
}

// Entry represents a lump in the archive directory.
type Entry struct {
	Name        string
	Offset      int32
	DiskSize    int32
	Size        int32
	Type        uint8
	Compression uint8
}

type dirEntry struct {
	FilePos     int32
	DiskSize    int32
	Size        int32
	Type        uint8
	Compression uint8
	Padding     uint16
	Name        [16]byte
}

// Archive represents an opened WAD3 archive.
type Archive struct {
	path    string
	file    io.ReadSeekCloser
	size    int64
	header  Header
	entries map[string]*Entry
}

// Open opens a WAD archive for reading and loads its directory.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	archive := &Archive{
		path:    path,
		file:    file,
		size:    info.Size(),
		entries: make(map[string]*Entry),
	}

	if err := archive.readHeader(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if err := archive.readDirectory(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	return archive, nil
}

// Path returns the file path the archive was opened from.
func (a *Archive) Path() string {
	return a.path
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

func (a *Archive) readHeader() error {
	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if err := binary.Read(a.file, binary.LittleEndian, &a.header); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedData, err)
	}

	if string(a.header.Magic[:]) != wadMagic {
		return ErrInvalidMagic
	}

	if a.header.NumDirs < 0 || a.header.DirOffset < 0 {
		return fmt.Errorf("invalid directory: %d entries at %d", a.header.NumDirs, a.header.DirOffset)
	}

	return nil
}

func (a *Archive) readDirectory() error {
	// Directory must lie inside the file before anything is allocated for it
	end := int64(a.header.DirOffset) + int64(a.header.NumDirs)*dirEntrySize
	if end > a.size {
		return fmt.Errorf("%w: %d entries at %d exceed file size %d",
			ErrTruncatedData, a.header.NumDirs, a.header.DirOffset, a.size)
	}

	if _, err := a.file.Seek(int64(a.header.DirOffset), io.SeekStart); err != nil {
		return err
	}

	dirData := make([]byte, int(a.header.NumDirs)*dirEntrySize)
	if _, err := io.ReadFull(a.file, dirData); err != nil {
		return fmt.Errorf("%w: directory", ErrTruncatedData)
	}

	r := bytes.NewReader(dirData)
	for i := int32(0); i < a.header.NumDirs; i++ {
		var d dirEntry
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			return fmt.Errorf("%w: directory entry %d", ErrTruncatedData, i)
		}

		entry := &Entry{
			Name:        encoding.FixedStringToUTF8(d.Name[:]),
			Offset:      d.FilePos,
			DiskSize:    d.DiskSize,
			Size:        d.Size,
			Type:        d.Type,
			Compression: d.Compression,
		}
		a.entries[encoding.NormalizeTextureName(entry.Name)] = entry
	}

	return nil
}

// List returns all lump names in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		result = append(result, e.Name)
	}
	sort.Strings(result)
	return result
}

// Entry returns the directory entry for name, or nil.
func (a *Archive) Entry(name string) *Entry {
	return a.entries[encoding.NormalizeTextureName(name)]
}

// HasTexture checks if a miptex with the given name exists.
// Lookup is case-insensitive and ignores any extension.
func (a *Archive) HasTexture(name string) bool {
	e, ok := a.entries[encoding.NormalizeTextureName(name)]
	return ok && e.Type == TypeMipTex
}

// ReadLump returns the raw bytes of a lump.
func (a *Archive) ReadLump(name string) ([]byte, error) {
	entry, ok := a.entries[encoding.NormalizeTextureName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTextureNotFound, name)
	}
	if entry.Compression != 0 {
		return nil, fmt.Errorf("%w: %s is compressed", ErrUnsupportedEntry, entry.Name)
	}
	if entry.Offset < 0 || entry.DiskSize < 0 || int64(entry.Offset)+int64(entry.DiskSize) > a.size {
		return nil, fmt.Errorf("%w: %s spans %d+%d of %d bytes",
			ErrTruncatedData, entry.Name, entry.Offset, entry.DiskSize, a.size)
	}

	if _, err := a.file.Seek(int64(entry.Offset), io.SeekStart); err != nil {
		return nil, err
	}

	data := make([]byte, entry.DiskSize)
	if _, err := io.ReadFull(a.file, data); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTruncatedData, entry.Name)
	}
	return data, nil
}

// ReadTexture reads and decodes a miptex lump.
func (a *Archive) ReadTexture(name string) (*MipTex, error) {
	entry := a.Entry(name)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrTextureNotFound, name)
	}
	if entry.Type != TypeMipTex {
		return nil, fmt.Errorf("%w: %s has type 0x%02x", ErrUnsupportedEntry, entry.Name, entry.Type)
	}

	data, err := a.ReadLump(name)
	if err != nil {
		return nil, err
	}
	return ParseMipTex(data)
}

// Write serializes textures as a WAD3 archive.
func Write(w io.Writer, textures []*MipTex) error {
	var body bytes.Buffer
	dirs := make([]dirEntry, 0, len(textures))

	offset := int32(12)
	for _, tex := range textures {
		block := EncodeMipTex(tex)
		var d dirEntry
		d.FilePos = offset
		d.DiskSize = int32(len(block))
		d.Size = int32(len(block))
		d.Type = TypeMipTex
		copy(d.Name[:], encoding.UTF8ToFixedString(tex.Name, len(d.Name)))
		dirs = append(dirs, d)

		body.Write(block)
		offset += int32(len(block))
	}

	header := Header{NumDirs: int32(len(dirs)), DirOffset: offset}
	copy(header.Magic[:], wadMagic)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, dirs)
}
