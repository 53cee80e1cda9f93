package scenes

import (
	"path/filepath"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hatoba/efkstage/assets"
	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"github.com/hatoba/efkstage/manifest"
	"github.com/hatoba/efkstage/stage"
	"github.com/hatoba/efkstage/systems"
	"github.com/hatoba/efkstage/systems/factory"
	"github.com/hatoba/efkstage/ui"
	"github.com/rs/zerolog/log"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// Ticks between automatic session snapshots.
const sessionSaveInterval = 600

// StageScene is the preview workspace: the stage viewport with its models
// and effects, the director timeline strip, and the transport bar.
type StageScene struct {
	ecs          *ecs.ECS
	sceneChanger SceneChanger
	transport    *ui.TransportUI
	once         sync.Once
	saveIn       int
}

// NewStageScene creates the stage scene.
func NewStageScene(sc SceneChanger) *StageScene {
	return &StageScene{sceneChanger: sc}
}

func (ss *StageScene) Update() {
	ss.once.Do(ss.configure)
	ss.ecs.Update()

	// The transport bar sleeps under the settings overlay so its buttons
	// cannot eat overlay clicks.
	if !systems.IsSettingsOpen(ss.ecs) {
		ss.transport.Update()
		if entry, ok := components.Playback.First(ss.ecs.World); ok {
			ss.transport.Refresh(components.Playback.Get(entry))
		}
	}

	ss.saveIn--
	if ss.saveIn <= 0 {
		ss.saveIn = sessionSaveInterval
		if err := systems.SaveSession(ss.ecs); err != nil {
			log.Warn().Err(err).Msg("session snapshot failed")
		}
	}
}

func (ss *StageScene) Draw(screen *ebiten.Image) {
	if ss.ecs == nil {
		return
	}
	ss.ecs.Draw(screen)
	if !systems.IsSettingsOpen(ss.ecs) {
		ss.transport.UI.Draw(screen)
	}
}

// Dispose snapshots the session and releases the scene's resources. The
// manifest watcher holds an OS handle, so it must be closed before the
// scene is dropped.
func (ss *StageScene) Dispose() {
	if ss.ecs == nil {
		return
	}
	if err := systems.SaveSession(ss.ecs); err != nil {
		log.Warn().Err(err).Msg("session snapshot on teardown failed")
	}
	if entry, ok := components.Engine.First(ss.ecs.World); ok {
		eng := components.Engine.Get(entry)
		if eng.Watcher != nil {
			_ = eng.Watcher.Close()
			eng.Watcher = nil
		}
		eng.Bus.Clear()
		eng.Followers.Clear()
		eng.Procedural.Disable()
	}
}

func (ss *StageScene) configure() {
	systems.PreloadAllSFX()
	assets.PreloadAllEffectSheets()
	if err := assets.LoadShaders(); err != nil {
		panic("failed to load shaders: " + err.Error())
	}

	e := ecs.NewECS(donburi.NewWorld())

	// Audio first so menu-originated cues keep playing, input second so
	// every later system sees this tick's actions.
	e.AddSystem(systems.UpdateAudio)
	e.AddSystem(systems.UpdateInput)
	e.AddSystem(systems.UpdateReload)
	e.AddSystem(systems.UpdateStageSettingsHotkey)
	e.AddSystem(systems.UpdateSettingsMenu)

	// The engine's tick order: transport advances the director (clip and
	// procedural updates, trigger fires), armatures pose this tick's
	// bones, effect animations advance, and the follow sweep runs last so
	// bone-bound instances land on the finalized pose.
	e.AddSystem(systems.UpdatePlayback)
	e.AddSystem(systems.UpdateTimeline)
	e.AddSystem(systems.UpdateArmatures)
	e.AddSystem(systems.UpdateEffects)
	e.AddSystem(systems.UpdateFollowers)

	e.AddSystem(systems.UpdateCamera)
	e.AddSystem(systems.UpdateHUD)
	e.AddSystem(systems.UpdateDebug)

	e.AddRenderer(cfg.Default, systems.DrawBackdrop)
	e.AddRenderer(cfg.Default, systems.DrawModels)
	e.AddRenderer(cfg.Default, systems.DrawEffects)
	e.AddRenderer(cfg.Default, systems.DrawHUD)
	e.AddRenderer(cfg.Default, systems.DrawTimeline)
	e.AddRenderer(cfg.Default, systems.DrawDebug)
	e.AddRenderer(cfg.Default, systems.DrawSettingsMenu)

	ss.ecs = e
	ss.saveIn = sessionSaveInterval

	st := factory.CreateBackdrop(e)
	factory.CreateSpace(e, st.Width, st.Height, 16, 16)
	factory.CreateCamera(e, st)

	m, path := loadStageManifest()

	runtime := systems.NewVFXRuntime(e)
	engineEntry := factory.BuildStage(e, m, path, runtime,
		func(stage.FiredTrigger) { systems.PlaySFX(e, cfg.SoundTriggerFire) },
		func(modelID, clipID string) { systems.PlaySFX(e, cfg.SoundClipStart) },
	)
	eng := components.Engine.Get(engineEntry)

	if path != "" {
		if w, err := manifest.Watch(filepath.Dir(path)); err == nil {
			eng.Watcher = w
		} else {
			log.Warn().Err(err).Str("path", path).Msg("manifest watch unavailable")
		}
	}

	if session, err := systems.LoadSession(); err == nil && session != nil {
		systems.ApplySavedSession(e, session)
	}

	ss.transport = ui.NewTransportUI(func(cmd components.TransportCommandData) {
		entry := e.World.Entry(e.World.Create(components.TransportCommand))
		components.TransportCommand.SetValue(entry, cmd)
	})

	systems.PlayAmbient(e)
	log.Info().Str("manifest", eng.ManifestPath).Int("models", len(m.Models)).
		Int("effects", len(m.Effects)).Msg("stage ready")
}

// loadStageManifest resolves the manifest to open: the -manifest flag,
// then the previous session's file, then the embedded showcase document.
func loadStageManifest() (*manifest.Manifest, string) {
	path := cfg.Debug.Manifest
	if path == "" {
		if session, err := systems.LoadSession(); err == nil && session != nil {
			path = session.ManifestPath
		}
	}

	if path != "" {
		m, err := manifest.Load(path)
		if err == nil {
			return m, path
		}
		log.Error().Err(err).Str("path", path).Msg("manifest unreadable, using the embedded showcase")
	}

	m, err := manifest.Parse(assets.DefaultManifest())
	if err != nil {
		panic("embedded showcase manifest invalid: " + err.Error())
	}
	return m, ""
}
