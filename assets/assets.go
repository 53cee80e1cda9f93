package assets

import (
	"embed"
	"fmt"
	"image/color"
	"path/filepath"
	"strconv"

	"github.com/lafriks/go-tiled"
)

//go:embed all:stages all:manifests
var assetFS embed.FS

// DefaultManifest returns the embedded showcase manifest, used when no
// manifest file is given and no previous session points at one.
func DefaultManifest() []byte {
	data, err := assetFS.ReadFile("manifests/showcase.yaml")
	if err != nil {
		panic(fmt.Sprintf("embedded showcase manifest missing: %v", err))
	}
	return data
}

// AnchorSpawn is a named point where a manifest model may be planted.
// Models are matched to anchors by name; unmatched models fall back to
// auto-layout.
type AnchorSpawn struct {
	Name string
	X    float64
	Y    float64
}

// PropRect is a flat decorative rectangle on the backdrop.
type PropRect struct {
	X, Y, Width, Height float64
	Color               color.RGBA
	Filled              bool
}

// Stage is one parsed backdrop: layout metadata plus the prop and anchor
// object groups from its TMX file. Stages carry no tile art; the renderer
// draws the floor grid and props directly.
type Stage struct {
	Name        string
	Width       int
	Height      int
	GridSpacing float64
	FloorY      float64
	Anchors     []AnchorSpawn
	Props       []PropRect
}

type StageLoader struct{}

func NewStageLoader() *StageLoader {
	return &StageLoader{}
}

func (l *StageLoader) MustLoadStages() []Stage {
	entries, err := assetFS.ReadDir("stages")
	if err != nil {
		panic(fmt.Sprintf("Failed to read stages directory: %v", err))
	}

	var stages []Stage
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".tmx" {
			stagePath := filepath.Join("stages", entry.Name())
			stages = append(stages, l.MustLoadStage(stagePath))
		}
	}

	if len(stages) == 0 {
		panic("No stage files found in assets/stages directory")
	}

	return stages
}

func (l *StageLoader) MustLoadStage(stagePath string) Stage {
	stageMap, err := tiled.LoadFile(stagePath, tiled.WithFileSystem(assetFS))
	if err != nil {
		panic(err)
	}

	st := Stage{
		Name:        stagePath,
		Width:       stageMap.Width * stageMap.TileWidth,
		Height:      stageMap.Height * stageMap.TileHeight,
		GridSpacing: 48,
		FloorY:      float64(stageMap.Height*stageMap.TileHeight) * 0.78,
	}
	if name := stageMap.Properties.GetString("name"); name != "" {
		st.Name = name
	}
	if v := stageMap.Properties.GetFloat("gridSpacing"); v > 0 {
		st.GridSpacing = v
	}
	if v := stageMap.Properties.GetFloat("floorY"); v > 0 {
		st.FloorY = v
	}

	for _, og := range stageMap.ObjectGroups {
		switch og.Name {
		case "ModelAnchors":
			for _, o := range og.Objects {
				st.Anchors = append(st.Anchors, AnchorSpawn{
					Name: o.Name,
					X:    o.X,
					Y:    o.Y,
				})
			}
		case "Props":
			for _, o := range og.Objects {
				clr := parseHexColor(o.Properties.GetString("color"))
				filled := o.Properties.GetBool("filled")
				st.Props = append(st.Props, PropRect{
					X:      o.X,
					Y:      o.Y,
					Width:  o.Width,
					Height: o.Height,
					Color:  clr,
					Filled: filled,
				})
			}
		}
	}

	return st
}

// parseHexColor reads "#rrggbb" Tiled color properties. Anything malformed
// falls back to a neutral gray so a typo in a stage file stays visible
// instead of invisible.
func parseHexColor(s string) color.RGBA {
	fallback := color.RGBA{R: 90, G: 90, B: 100, A: 255}
	if len(s) != 7 || s[0] != '#' {
		return fallback
	}
	r, err1 := strconv.ParseUint(s[1:3], 16, 8)
	g, err2 := strconv.ParseUint(s[3:5], 16, 8)
	b, err3 := strconv.ParseUint(s[5:7], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return fallback
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}
