package systems

import (
	"encoding/json"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"github.com/quasilyte/gdata"
	"github.com/rs/zerolog/log"
	"github.com/yohamta/donburi/ecs"
)

// SavedSettings represents the settings data stored on disk
type SavedSettings struct {
	MusicVolume     float64 `json:"musicVolume"`
	SFXVolume       float64 `json:"sfxVolume"`
	Muted           bool    `json:"muted"`
	Fullscreen      bool    `json:"fullscreen"`
	ResolutionIndex int     `json:"resolutionIndex"`
}

// SavedSession remembers the workspace between runs: the manifest that was
// open and the transport preferences worth restoring.
type SavedSession struct {
	ManifestPath    string  `json:"manifestPath"`
	Looping         bool    `json:"looping"`
	SpeedIndex      int     `json:"speedIndex"`
	TimelineVisible bool    `json:"timelineVisible"`
	CameraZoom      float64 `json:"cameraZoom"`
}

var gdataManager *gdata.Manager
var gdataInitialized bool

// InitPersistence initializes the gdata manager for settings storage
func InitPersistence() error {
	m, err := gdata.Open(gdata.Config{
		AppName: "efkstage",
	})
	if err != nil {
		log.Warn().Err(err).Msg("could not initialize persistence")
		return err
	}
	gdataManager = m
	gdataInitialized = true
	return nil
}

// LoadSettings loads settings from disk
func LoadSettings() (*SavedSettings, error) {
	if !gdataInitialized || gdataManager == nil {
		return nil, nil
	}

	data, err := gdataManager.LoadItem("settings")
	if err != nil {
		log.Warn().Err(err).Msg("could not load settings")
		return nil, nil
	}
	if data == nil {
		// No saved settings yet, use defaults
		return nil, nil
	}

	var settings SavedSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		log.Warn().Err(err).Msg("could not parse saved settings")
		return nil, err
	}

	return &settings, nil
}

// SaveSettings saves settings to disk
func SaveSettings(s *SavedSettings) error {
	if !gdataInitialized || gdataManager == nil {
		return nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		log.Warn().Err(err).Msg("could not serialize settings")
		return err
	}

	if err := gdataManager.SaveItem("settings", data); err != nil {
		log.Warn().Err(err).Msg("could not save settings")
		return err
	}
	return nil
}

// SaveCurrentSettings saves the current settings from the SettingsMenuData component
func SaveCurrentSettings(s *components.SettingsMenuData) {
	saved := &SavedSettings{
		MusicVolume:     s.MusicVolume,
		SFXVolume:       s.SFXVolume,
		Muted:           s.Muted,
		Fullscreen:      s.Fullscreen,
		ResolutionIndex: s.ResolutionIndex,
	}
	_ = SaveSettings(saved)
}

// ApplySavedSettings applies loaded settings to the running scene
func ApplySavedSettings(e *ecs.ECS, saved *SavedSettings) {
	if saved == nil {
		return
	}

	SetMusicVolume(e, saved.MusicVolume)
	SetSFXVolume(e, saved.SFXVolume)

	if saved.Muted {
		SetMusicVolume(e, 0)
		SetSFXVolume(e, 0)
	}

	ebiten.SetFullscreen(saved.Fullscreen)

	if !saved.Fullscreen && saved.ResolutionIndex < len(cfg.SettingsMenu.Resolutions) {
		res := cfg.SettingsMenu.Resolutions[saved.ResolutionIndex]
		ebiten.SetWindowSize(res.Width, res.Height)
	}

	if entry, ok := components.SettingsMenu.First(e.World); ok {
		settings := components.SettingsMenu.Get(entry)
		settings.MusicVolume = saved.MusicVolume
		settings.SFXVolume = saved.SFXVolume
		settings.Muted = saved.Muted
		settings.Fullscreen = saved.Fullscreen
		settings.ResolutionIndex = saved.ResolutionIndex
		if saved.Muted {
			settings.PreMuteMusicVol = saved.MusicVolume
			settings.PreMuteSFXVol = saved.SFXVolume
		}
	}
}

// ApplySavedSettingsGlobal applies settings without needing an ECS reference
// Used during initial startup before scenes are created
func ApplySavedSettingsGlobal(saved *SavedSettings) {
	if saved == nil {
		return
	}

	globalMusicVolume = saved.MusicVolume
	globalSFXVolume = saved.SFXVolume

	if saved.Muted {
		globalMusicVolume = 0
		globalSFXVolume = 0
	}

	ebiten.SetFullscreen(saved.Fullscreen)

	if !saved.Fullscreen && saved.ResolutionIndex < len(cfg.SettingsMenu.Resolutions) {
		res := cfg.SettingsMenu.Resolutions[saved.ResolutionIndex]
		ebiten.SetWindowSize(res.Width, res.Height)
	}
}

// LoadSession loads the previous workspace snapshot, or nil when absent.
func LoadSession() (*SavedSession, error) {
	if !gdataInitialized || gdataManager == nil {
		return nil, nil
	}

	data, err := gdataManager.LoadItem("session")
	if err != nil {
		log.Warn().Err(err).Msg("could not load session")
		return nil, nil
	}
	if len(data) == 0 {
		return nil, nil
	}

	var session SavedSession
	if err := json.Unmarshal(data, &session); err != nil {
		log.Warn().Err(err).Msg("could not parse saved session")
		return nil, err
	}

	return &session, nil
}

// SaveSession snapshots the current workspace. Called on scene teardown so
// the next launch reopens where the author left off.
func SaveSession(e *ecs.ECS) error {
	if !gdataInitialized || gdataManager == nil {
		return nil
	}

	session := SavedSession{CameraZoom: 1}

	if entry, ok := components.Engine.First(e.World); ok {
		session.ManifestPath = components.Engine.Get(entry).ManifestPath
	}
	if entry, ok := components.Playback.First(e.World); ok {
		pb := components.Playback.Get(entry)
		session.Looping = pb.Looping
		session.SpeedIndex = pb.SpeedIndex
	}
	if entry, ok := components.Timeline.First(e.World); ok {
		session.TimelineVisible = components.Timeline.Get(entry).Visible
	}
	if entry, ok := components.Camera.First(e.World); ok {
		session.CameraZoom = components.Camera.Get(entry).Zoom
	}

	data, err := json.Marshal(&session)
	if err != nil {
		log.Warn().Err(err).Msg("could not serialize session")
		return err
	}

	if err := gdataManager.SaveItem("session", data); err != nil {
		log.Warn().Err(err).Msg("could not save session")
		return err
	}
	return nil
}

// ApplySavedSession restores transport preferences onto a fresh stage scene.
func ApplySavedSession(e *ecs.ECS, session *SavedSession) {
	if session == nil {
		return
	}

	if entry, ok := components.Playback.First(e.World); ok {
		pb := components.Playback.Get(entry)
		pb.Looping = session.Looping
		if session.SpeedIndex >= 0 && session.SpeedIndex < len(cfg.Playback.SpeedSteps) {
			pb.SpeedIndex = session.SpeedIndex
		}
	}
	if entry, ok := components.Timeline.First(e.World); ok {
		components.Timeline.Get(entry).Visible = session.TimelineVisible
	}
	if entry, ok := components.Camera.First(e.World); ok {
		camera := components.Camera.Get(entry)
		if session.CameraZoom >= cfg.Camera.MinZoom && session.CameraZoom <= cfg.Camera.MaxZoom {
			camera.Zoom = session.CameraZoom
		}
	}
}
