// placeholders: writes a simple PNG for every menu image that is missing,
// so the UI has something to show before real photos exist.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/teslashibe/go-drivethru/internal/config"
	"github.com/teslashibe/go-drivethru/internal/log"
	"github.com/teslashibe/go-drivethru/pkg/menu"
)

const (
	size   = 300
	radius = 80
	lift   = 30 // disc sits above centre to leave room for a caption
)

var background = color.NRGBA{R: 42, G: 42, B: 74, A: 255}

func main() {
	staticDir := flag.String("static", config.Env("STATIC_DIR", config.DefaultStaticDir), "static files directory")
	menuFile := flag.String("menu", config.Env("MENU_FILE", ""), "menu YAML file (embedded menu when empty)")
	force := flag.Bool("force", false, "overwrite existing images")
	flag.Parse()

	log.Init(config.Env("LOG_LEVEL", "info"))

	cat, err := menu.Default()
	if *menuFile != "" {
		cat, err = menu.LoadFile(*menuFile)
	}
	if err != nil {
		log.Error("load menu", "error", err)
		os.Exit(1)
	}

	written, err := generate(cat, *staticDir, *force)
	if err != nil {
		log.Error("generate placeholders", "error", err)
		os.Exit(1)
	}
	log.Info("placeholders done", "written", written, "items", cat.Len())
}

// generate renders one image per catalog item and returns how many were written.
func generate(cat *menu.Catalog, staticDir string, force bool) (int, error) {
	written := 0
	for _, it := range cat.Items() {
		path, err := imagePath(staticDir, it.Image)
		if err != nil {
			return written, fmt.Errorf("%s: %w", it.Name, err)
		}
		if !force {
			if _, err := os.Stat(path); err == nil {
				log.Debug("exists, skipping", "path", path)
				continue
			}
		}

		c, err := parseHexColor(it.Color)
		if err != nil {
			return written, fmt.Errorf("%s: %w", it.Name, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return written, err
		}
		if err := imaging.Save(render(c), path); err != nil {
			return written, fmt.Errorf("%s: %w", it.Name, err)
		}
		log.Info("created", "path", path)
		written++
	}
	return written, nil
}

// imagePath maps a served URL like /static/Menu/Fries.png into staticDir.
func imagePath(staticDir, url string) (string, error) {
	rel, ok := strings.CutPrefix(url, "/static/")
	if !ok || rel == "" || strings.Contains(rel, "..") {
		return "", fmt.Errorf("image %q is not under /static/", url)
	}
	return filepath.Join(staticDir, filepath.FromSlash(rel)), nil
}

// render draws the coloured disc on the dark background.
func render(c color.NRGBA) *image.NRGBA {
	img := imaging.New(size, size, background)
	cx, cy := size/2, size/2-lift
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				img.SetNRGBA(x, y, c)
			}
		}
	}
	return img
}

func parseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("bad colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
