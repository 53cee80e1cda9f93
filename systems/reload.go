package systems

import (
	"time"

	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"github.com/hatoba/efkstage/manifest"
	"github.com/hatoba/efkstage/systems/factory"
	"github.com/yohamta/donburi/ecs"
)

// Editors fire several watch events per save; reloads coalesce behind this
// window.
const reloadDebounce = 250 * time.Millisecond

var reloadArmedAt time.Time

// UpdateReload drains the manifest watcher and rebuilds the stage once the
// file settles. The reload key forces an immediate rebuild.
func UpdateReload(e *ecs.ECS) {
	engineEntry, ok := components.Engine.First(e.World)
	if !ok {
		return
	}
	eng := components.Engine.Get(engineEntry)

	if eng.Watcher != nil {
	drain:
		for {
			select {
			case _, open := <-eng.Watcher.Events:
				if !open {
					eng.Watcher = nil
					break drain
				}
				reloadArmedAt = time.Now().Add(reloadDebounce)
			case err, open := <-eng.Watcher.Errors:
				if !open {
					eng.Watcher = nil
					break drain
				}
				if err != nil {
					SetStatus(eng, "watch error: "+err.Error())
				}
			default:
				break drain
			}
		}
	}

	input := getOrCreateInput(e)
	force := GetAction(input, cfg.ActionReload).JustPressed
	due := !reloadArmedAt.IsZero() && time.Now().After(reloadArmedAt)
	if !force && !due {
		return
	}
	reloadArmedAt = time.Time{}

	reloadManifest(e, eng)
}

// reloadManifest swaps in a freshly parsed manifest, preserving the
// transport position and selection where they still apply.
func reloadManifest(e *ecs.ECS, eng *components.EngineData) {
	playbackEntry, ok := components.Playback.First(e.World)
	if !ok {
		return
	}
	pb := components.Playback.Get(playbackEntry)

	if eng.ManifestPath == "" {
		SetStatus(eng, "embedded showcase manifest, nothing to reload")
		return
	}

	m, err := manifest.Load(eng.ManifestPath)
	if err != nil {
		PlaySFX(e, cfg.SoundReloadFail)
		SetStatus(eng, "reload failed: "+err.Error())
		return
	}

	keepTime := pb.Time
	keepPlaying := pb.Playing
	keepSelected := pb.SelectedModel

	StopPlayback(e, pb, eng)
	factory.RebuildStage(e, m)

	pb.Duration = eng.Director.Duration()
	if keepTime > pb.Duration {
		keepTime = pb.Duration
	}
	requestSeek(pb, keepTime)
	pb.Playing = keepPlaying

	pb.SelectedModel = ""
	for i := range m.Models {
		if m.Models[i].ID == keepSelected {
			pb.SelectedModel = keepSelected
		}
	}
	if pb.SelectedModel == "" && len(m.Models) > 0 {
		pb.SelectedModel = m.Models[0].ID
	}

	PlaySFX(e, cfg.SoundReloadOK)
	SetStatus(eng, "manifest reloaded")
}
