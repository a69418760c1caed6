// wadtool is a CLI utility for inspecting WAD3 texture archives and the
// textures a map depends on.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/Faultbox/bspview/internal/engine/debug"
	"github.com/Faultbox/bspview/internal/engine/texture"
	"github.com/Faultbox/bspview/internal/logger"
	"github.com/Faultbox/bspview/pkg/bsp"
	"github.com/Faultbox/bspview/pkg/wad"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "list", "ls":
		cmdList(args)
	case "extract", "x":
		cmdExtract(args)
	case "check":
		cmdCheck(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`wadtool - GoldSrc WAD3 texture archive utility

Usage:
  wadtool <command> [options]

Commands:
  info <file.wad>                       Show archive information
  list <file.wad> [pattern]             List textures (optional glob pattern)
  extract <file.wad> <pattern> [output] Extract textures as images
  check <map.bsp>                       Resolve the textures a map uses

Examples:
  wadtool info halflife.wad
  wadtool list halflife.wad "+0*"
  wadtool extract -format bmp halflife.wad "*" ./textures
  wadtool check -game ~/svencoop maps/svencoop1.bsp`)
}

func openArchive(path string) *wad.Archive {
	archive, err := wad.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return archive
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: wadtool info <file.wad>")
		os.Exit(1)
	}

	archive := openArchive(args[0])
	defer archive.Close()

	names := archive.List()

	typeCount := make(map[uint8]int)
	var totalSize int64
	for _, name := range names {
		e := archive.Entry(name)
		typeCount[e.Type]++
		totalSize += int64(e.Size)
	}

	fmt.Printf("Archive: %s\n", args[0])
	fmt.Printf("Lumps:   %d\n", len(names))
	fmt.Printf("Size:    %.2f MB\n", float64(totalSize)/(1024*1024))
	fmt.Println()
	fmt.Println("Lumps by type:")

	types := make([]uint8, 0, len(typeCount))
	for t := range typeCount {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return typeCount[types[i]] > typeCount[types[j]]
	})
	for _, t := range types {
		fmt.Printf("  %-10s %d\n", lumpTypeName(t), typeCount[t])
	}
}

func lumpTypeName(t uint8) string {
	if t == wad.TypeMipTex {
		return "miptex"
	}
	return fmt.Sprintf("0x%02x", t)
}

// matchTextures returns the sorted miptex names matching a glob pattern.
// An empty pattern matches everything.
func matchTextures(archive *wad.Archive, pattern string) []string {
	pattern = strings.ToLower(pattern)

	var names []string
	for _, name := range archive.List() {
		if !archive.HasTexture(name) {
			continue
		}
		if pattern != "" {
			lower := strings.ToLower(name)
			matched, _ := filepath.Match(pattern, lower)
			if !matched && !strings.Contains(lower, pattern) {
				continue
			}
		}
		names = append(names, name)
	}
	return names
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N textures (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: wadtool list <file.wad> [pattern]")
		os.Exit(1)
	}

	archive := openArchive(fs.Arg(0))
	defer archive.Close()

	names := matchTextures(archive, fs.Arg(1))

	count := 0
	for _, name := range names {
		tex, err := archive.ReadTexture(name)
		if err != nil {
			fmt.Printf("%-16s (unreadable: %v)\n", name, err)
		} else {
			fmt.Printf("%-16s %4dx%-4d\n", name, tex.Width, tex.Height)
		}
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	fmt.Fprintf(os.Stderr, "\n(%d textures)\n", count)
}

func cmdExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	format := fs.String("format", "png", "Image format: png or bmp")
	colorKey := fs.Bool("colorkey", true, "Make the blue key transparent on '{' textures")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: wadtool extract [-format png|bmp] <file.wad> <pattern> [output_dir]")
		os.Exit(1)
	}

	ext := "." + strings.ToLower(*format)
	if ext != ".png" && ext != ".bmp" {
		fmt.Fprintf(os.Stderr, "Unknown format: %s\n", *format)
		os.Exit(1)
	}

	outputDir := "."
	if fs.NArg() > 2 {
		outputDir = fs.Arg(2)
	}

	archive := openArchive(fs.Arg(0))
	defer archive.Close()

	names := matchTextures(archive, fs.Arg(1))
	if len(names) == 0 {
		fmt.Fprintf(os.Stderr, "No textures match: %s\n", fs.Arg(1))
		os.Exit(1)
	}

	bar := progressbar.Default(int64(len(names)), "extracting")
	extracted := 0
	for _, name := range names {
		bar.Add(1)

		mt, err := archive.ReadTexture(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError reading %s: %v\n", name, err)
			continue
		}

		tex := texture.Decode(mt)
		keyed := *colorKey && texture.IsTransparentName(tex.Name)
		outputPath := filepath.Join(outputDir, safeFileName(tex.Name)+ext)
		if err := debug.SaveImage(outputPath, tex.RGBA(keyed)); err != nil {
			fmt.Fprintf(os.Stderr, "\nError writing %s: %v\n", outputPath, err)
			continue
		}
		extracted++
	}
	bar.Finish()

	fmt.Fprintf(os.Stderr, "\nExtracted %d of %d textures to %s\n", extracted, len(names), outputDir)
}

// safeFileName replaces characters that texture names may contain but
// file systems reject.
func safeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	gamePath := fs.String("game", ".", "Game installation root")
	verbose := fs.Bool("v", false, "Log WAD lookups")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: wadtool check [-game dir] <map.bsp>")
		os.Exit(1)
	}

	level := "error"
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(level, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	m, err := bsp.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if ws := m.Worldspawn(); ws != nil {
		fmt.Printf("WADs:     %s\n", strings.Join(ws.WADs(), ", "))
	}

	bank := texture.NewBank(m, texture.BankOptions{
		Logger:   logger.Log,
		GamePath: *gamePath,
	})

	for i := range m.Textures {
		tex := bank.Resolve(i)
		fmt.Printf("%3d  %-16s %-11s %4dx%-4d\n", i, m.Textures[i].Name(), bank.Source(i), tex.Width, tex.Height)
	}

	embedded, fromWAD, missing := bank.Counts()
	fmt.Printf("\nTextures: %d embedded, %d from WADs, %d missing\n", embedded, fromWAD, missing)
	if missing > 0 {
		os.Exit(2)
	}
}
