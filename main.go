package main

import (
	"flag"
	"image"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hatoba/efkstage/config"
	"github.com/hatoba/efkstage/fonts"
	"github.com/hatoba/efkstage/scenes"
	"github.com/hatoba/efkstage/systems"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font/gofont/goregular"
)

type Scene interface {
	Update()
	Draw(screen *ebiten.Image)
}

type Game struct {
	bounds image.Rectangle
	scene  Scene
}

// ChangeScene switches to a new scene, letting the old one release what
// it holds (file watchers, session state) first.
func (g *Game) ChangeScene(scene interface{}) {
	if d, ok := g.scene.(interface{ Dispose() }); ok {
		d.Dispose()
	}
	g.scene = scene.(Scene)
}

func NewGame() *Game {
	fonts.LoadFontWithSize(fonts.Sans, goregular.TTF, 14)
	fonts.LoadFontWithSize(fonts.SansBold, goregular.TTF, 20)
	fonts.LoadFontWithSize(fonts.SansTitle, goregular.TTF, 32)
	fonts.LoadFontWithSize(fonts.SansSmall, goregular.TTF, 12)

	g := &Game{
		bounds: image.Rectangle{},
	}

	if config.Debug.SkipMenu {
		g.scene = scenes.NewStageScene(g)
	} else {
		g.scene = scenes.NewMenuScene(g)
	}

	return g
}

func (g *Game) Update() error {
	g.scene.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.scene.Draw(screen)
}

func (g *Game) Layout(width, height int) (int, int) {
	g.bounds = image.Rect(0, 0, config.C.Width, config.C.Height)
	return config.C.Width, config.C.Height
}

func main() {
	manifestPath := flag.String("manifest", "", "stage manifest to open (default: last session, then the embedded showcase)")
	skipMenu := flag.Bool("skip-menu", false, "open the stage scene directly")
	overlay := flag.Bool("overlay", false, "start with the debug overlay enabled")
	mute := flag.Bool("mute", false, "start with audio muted")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}).Level(level).With().Timestamp().Logger()

	config.Debug.Manifest = *manifestPath
	config.Debug.SkipMenu = *skipMenu
	config.Debug.Overlay = *overlay
	config.Debug.Mute = *mute

	ebiten.SetWindowSize(config.C.Width, config.C.Height)
	ebiten.SetWindowTitle(config.C.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeOnlyFullscreenEnabled)
	ebiten.SetTPS(int(config.Playback.TickRate))

	// Initialize persistence and load saved settings
	if err := systems.InitPersistence(); err != nil {
		log.Warn().Err(err).Msg("could not initialize persistence")
	}
	if saved, err := systems.LoadSettings(); err == nil && saved != nil {
		systems.ApplySavedSettingsGlobal(saved)
	}

	if err := ebiten.RunGame(NewGame()); err != nil {
		log.Fatal().Err(err).Msg("game loop exited")
	}
}
