package factory

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hatoba/efkstage/archetypes"
	"github.com/hatoba/efkstage/assets"
	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"github.com/hatoba/efkstage/manifest"
	"github.com/hatoba/efkstage/stage"
	"github.com/hatoba/efkstage/tags"
	"github.com/rs/zerolog/log"
	"github.com/solarlune/resolv"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	dmath "github.com/yohamta/donburi/features/math"
)

// BuildStage spawns the whole preview session for a manifest: the engine
// entity with its wired trigger/follow/procedural core, one model entity
// per manifest model, and the transport and timeline singletons. The
// backdrop, camera and resolv space must already exist.
//
// runtime is the effect backend; onFired and onClipStart are feedback
// hooks the engine keeps so a manifest reload can rewire around them.
func BuildStage(e *ecs.ECS, m *manifest.Manifest, manifestPath string,
	runtime stage.EffectRuntime, onFired func(stage.FiredTrigger), onClipStart func(modelID, clipID string)) *donburi.Entry {

	eng := &components.EngineData{
		ManifestPath: manifestPath,
		Runtime:      runtime,
		OnFired:      onFired,
		OnClipStart:  onClipStart,
	}

	entry := archetypes.Engine.Spawn(e)
	components.Engine.Set(entry, eng)

	wireEngine(e, eng, m)
	spawnModels(e, eng, m)

	selected := ""
	if len(m.Models) > 0 {
		selected = m.Models[0].ID
	}
	playback := archetypes.Playback.Spawn(e)
	components.Playback.Set(playback, &components.PlaybackData{
		Duration:      eng.Director.Duration(),
		Looping:       cfg.Playback.LoopByDefault,
		SpeedIndex:    cfg.Playback.DefaultSpeed,
		SelectedModel: selected,
	})

	timeline := archetypes.Timeline.Spawn(e)
	components.Timeline.Set(timeline, &components.TimelineData{Visible: true})

	return entry
}

// RebuildStage swaps a freshly parsed manifest into the running session:
// the old engine wiring is torn down, model entities are respawned, and
// the engine is rewired around the same runtime backend and feedback
// hooks. Transport, camera and timeline entities survive; the caller
// fixes up duration and selection afterwards.
func RebuildStage(e *ecs.ECS, m *manifest.Manifest) {
	engineEntry, ok := components.Engine.First(e.World)
	if !ok {
		return
	}
	eng := components.Engine.Get(engineEntry)

	if eng.Followers != nil {
		eng.Followers.Clear()
	}
	if eng.Scheduler != nil {
		eng.Scheduler.Reset()
	}
	if eng.Procedural != nil {
		eng.Procedural.Disable()
	}
	if eng.Bus != nil {
		eng.Bus.Clear()
	}
	destroyModels(e)

	wireEngine(e, eng, m)
	spawnModels(e, eng, m)
}

// wireEngine builds the engine core for one manifest: bus, director,
// trigger scheduler, follow registry, procedural channel and timers, all
// explicitly constructed and cross-wired here, then subscribed to the bus
// so director updates reach the trigger and procedural consumers.
func wireEngine(e *ecs.ECS, eng *components.EngineData, m *manifest.Manifest) {
	if eng.Bones == nil {
		eng.Bones = components.NewBoneIndex()
	} else {
		eng.Bones.Clear()
	}
	eng.Models = components.NewModelIndex()

	fps := m.EffectiveFrameRate(cfg.Playback.FrameRate)

	bus := stage.NewBus()
	timers := stage.NewTimerSet(time.Now)

	followers := stage.NewFollowRegistry(eng.Bones, timers)
	followers.Logger = log.With().Str("sys", "followers").Logger()

	scheduler := stage.NewTriggerScheduler(eng.Runtime, eng.Bones, followers, timers)
	scheduler.FrameRate = fps
	scheduler.Logger = log.With().Str("sys", "triggers").Logger()
	scheduler.OnFired = func(ft stage.FiredTrigger) {
		eng.TriggersFired++
		if eng.OnFired != nil {
			eng.OnFired(ft)
		}
	}

	procedural := stage.NewProceduralChannel(eng.Models)
	procedural.Enable()

	director := stage.NewDirector(bus, m.DirectorTracks(fps))
	director.Logger = log.With().Str("sys", "director").Logger()

	bus.OnClipUpdate(func(ev stage.ClipUpdateEvent) {
		routeClipUpdate(e, eng, fps, ev)
	})
	bus.OnProceduralUpdate(procedural.OnProceduralUpdate)

	effects := m.StageEffects()
	for i := range effects {
		effects[i].Loaded = assets.HasAsset(effects[i].Asset)
		if !effects[i].Loaded {
			log.Warn().Str("effect", effects[i].ID).Str("asset", effects[i].Asset).
				Msg("unknown effect asset, triggers disabled")
		}
	}

	eng.Bus = bus
	eng.Director = director
	eng.Scheduler = scheduler
	eng.Followers = followers
	eng.Procedural = procedural
	eng.Timers = timers
	eng.Manifest = m
	eng.Effects = effects
}

// routeClipUpdate is the director-mode clip consumer: it mirrors the event
// onto the model entity for the HUD and armature, then advances the
// model's trigger cursor. Each model has its own cursor, so the clip-local
// time dropping at a clip boundary is seen as a backward jump and resets
// that cursor without touching the others.
func routeClipUpdate(e *ecs.ECS, eng *components.EngineData, fps float64, ev stage.ClipUpdateEvent) {
	clip := ev.Clip

	components.Model.Each(e.World, func(entry *donburi.Entry) {
		md := components.Model.Get(entry)
		if md.ID != ev.ModelID {
			return
		}
		if ev.Ending {
			md.ActiveClipID = ""
			md.ActiveClipName = ""
			md.ClipPlaying = false
			return
		}
		md.ActiveClipID = clip.ID
		md.ActiveClipName = clip.Name
		md.ClipLocalTime = ev.LocalTime
		md.ClipDuration = clip.Duration(fps)
		md.ClipPlaying = ev.Playing
	})

	if ev.Starting && eng.OnClipStart != nil {
		eng.OnClipStart(ev.ModelID, clip.ID)
	}
	if !ev.Ending {
		eng.Scheduler.OnTimeAdvanceFor(ev.ModelID, ev.LocalTime, ev.Playing, &clip, eng.Effects)
	}
}

// spawnModels creates one entity per manifest model: display state shared
// with the procedural channel, the armature in parents-first order, and a
// resolv anchor box for mouse picking.
func spawnModels(e *ecs.ECS, eng *components.EngineData, m *manifest.Manifest) {
	var st *assets.Stage
	if bdEntry, ok := components.Backdrop.First(e.World); ok {
		st = components.Backdrop.Get(bdEntry).Current
	}
	var space *resolv.Space
	if spaceEntry, ok := components.Space.First(e.World); ok {
		space = components.Space.Get(spaceEntry)
	}

	for i := range m.Models {
		def := &m.Models[i]
		ax, ay := anchorFor(st, def.Anchor, i, len(m.Models))

		state := &stage.ModelState{
			Visible: true,
			Opacity: 1,
			Scale:   mgl64.Vec3{1, 1, 1},
		}
		eng.Models.Register(def.ID, state)

		entry := archetypes.Model.Spawn(e)
		components.Model.Set(entry, &components.ModelData{
			ID:     def.ID,
			Name:   def.Name,
			Def:    def,
			State:  state,
			Anchor: dmath.Vec2{X: ax, Y: ay},
		})
		components.Armature.Set(entry, buildArmature(def))

		half := cfg.Stage.AnchorSize / 2
		obj := resolv.NewObject(ax-half, ay-half, cfg.Stage.AnchorSize, cfg.Stage.AnchorSize, tags.ResolvAnchor)
		components.Object.Set(entry, &components.ObjectData{Object: obj})
		if space != nil {
			space.Add(obj)
		}
	}
}

// destroyModels removes every model entity and its anchor box from the
// resolv space.
func destroyModels(e *ecs.ECS) {
	var space *resolv.Space
	if spaceEntry, ok := components.Space.First(e.World); ok {
		space = components.Space.Get(spaceEntry)
	}

	var toDestroy []*donburi.Entry
	tags.Model.Each(e.World, func(entry *donburi.Entry) {
		if space != nil && entry.HasComponent(components.Object) {
			space.Remove(components.Object.Get(entry).Object)
		}
		toDestroy = append(toDestroy, entry)
	})
	for _, entry := range toDestroy {
		entry.Remove()
	}
}

// anchorFor places a model: a named TMX anchor when one matches, otherwise
// an even spread across the stage floor.
func anchorFor(st *assets.Stage, name string, index, count int) (float64, float64) {
	if st != nil && name != "" {
		for _, a := range st.Anchors {
			if a.Name == name {
				return a.X, a.Y
			}
		}
		log.Warn().Str("anchor", name).Msg("anchor not on stage, auto-placing model")
	}

	centerX := float64(cfg.C.Width) / 2
	floorY := cfg.Stage.FloorY
	if st != nil {
		centerX = float64(st.Width) / 2
		floorY = st.FloorY
	}
	offset := (float64(index) - float64(count-1)/2) * cfg.Stage.ModelSpacing
	return centerX + offset, floorY
}

// buildArmature converts a manifest skeleton into live bone state, ordered
// parents-first so one forward pass composes the world chain.
func buildArmature(def *manifest.Model) *components.ArmatureData {
	ad := &components.ArmatureData{
		ModelID: def.ID,
		Bones:   make(map[string]*components.BoneState, len(def.Bones)),
	}
	for _, b := range def.Bones {
		ad.Bones[b.Name] = &components.BoneState{Def: b, Angle: b.Angle}
	}

	// Manifest bones may be declared in any order; emit parents before
	// children so composeWorld never reads a stale parent pose.
	placed := make(map[string]bool, len(def.Bones))
	for len(ad.Order) < len(def.Bones) {
		progressed := false
		for _, b := range def.Bones {
			if placed[b.Name] {
				continue
			}
			if b.Parent != "" && !placed[b.Parent] {
				continue
			}
			ad.Order = append(ad.Order, b.Name)
			placed[b.Name] = true
			progressed = true
		}
		if !progressed {
			// Validation rejects cycles; this guards a hand-built Model.
			for _, b := range def.Bones {
				if !placed[b.Name] {
					ad.Order = append(ad.Order, b.Name)
					placed[b.Name] = true
				}
			}
		}
	}
	return ad
}
