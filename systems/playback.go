package systems

import (
	"fmt"

	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// UpdatePlayback drives the transport: it applies transport actions, advances
// the shared timeline, and ticks the director every frame so clip and
// procedural consumers stay current even while paused or scrubbing.
func UpdatePlayback(e *ecs.ECS) {
	playbackEntry, ok := components.Playback.First(e.World)
	if !ok {
		return
	}
	pb := components.Playback.Get(playbackEntry)

	engineEntry, ok := components.Engine.First(e.World)
	if !ok {
		return
	}
	eng := components.Engine.Get(engineEntry)

	if inputEntry, ok := components.Input.First(e.World); ok && !IsSettingsOpen(e) {
		input := components.Input.Get(inputEntry)
		applyTransportActions(e, pb, eng, input)
	}
	drainTransportCommands(e, pb, eng)

	// Seeks requested by actions or the timeline UI go through the
	// director so trigger cursors rewind and procedural clip starts
	// behind the new position re-arm.
	if pb.PendingSeek != nil {
		t := clampTime(*pb.PendingSeek, pb.Duration)
		eng.Director.Seek(t)
		pb.Time = t
		pb.PendingSeek = nil
		pb.ReplayCountdown = 0
	}

	if pb.Playing {
		advancePlayhead(e, pb, eng)
	}

	// Triggers hold fire during the replay countdown, otherwise the final
	// frame's triggers would fire once per tick while the playhead parks
	// at the end.
	eng.Director.Tick(pb.Time, pb.Playing && pb.ReplayCountdown <= 0)

	// Bone-bound instances are driven through their handles, so the
	// transport state fans out over the registry every tick. Running after
	// Director.Tick covers instances spawned this very tick.
	eng.Followers.SetPausedAll(!pb.Playing || pb.ReplayCountdown > 0)
	eng.Followers.SetSpeedAll(cfg.Playback.SpeedSteps[pb.SpeedIndex])
}

func advancePlayhead(e *ecs.ECS, pb *components.PlaybackData, eng *components.EngineData) {
	if pb.ReplayCountdown > 0 {
		pb.ReplayCountdown -= 1.0 / cfg.Playback.TickRate
		if pb.ReplayCountdown <= 0 {
			pb.ReplayCountdown = 0
			eng.Director.Seek(0)
			pb.Time = 0
			PlaySFX(e, cfg.SoundLoopWrap)
		}
		return
	}

	speed := cfg.Playback.SpeedSteps[pb.SpeedIndex]
	pb.Time += speed / cfg.Playback.TickRate

	if pb.Duration <= 0 || pb.Time < pb.Duration {
		return
	}
	pb.Time = pb.Duration

	if !pb.Looping {
		pb.Playing = false
		return
	}
	delay := eng.Manifest.EffectiveLoopDelay(cfg.Playback.ReplayDelaySec)
	if delay <= 0 {
		eng.Director.Seek(0)
		pb.Time = 0
		PlaySFX(e, cfg.SoundLoopWrap)
		return
	}
	pb.ReplayCountdown = delay
}

func applyTransportActions(e *ecs.ECS, pb *components.PlaybackData, eng *components.EngineData, input *components.InputData) {
	frameDur := 1.0 / eng.Manifest.EffectiveFrameRate(cfg.Playback.FrameRate)

	if GetAction(input, cfg.ActionTogglePlay).JustPressed {
		if !pb.Playing && pb.Duration > 0 && pb.Time >= pb.Duration {
			// Play at the end restarts from the top.
			requestSeek(pb, 0)
		}
		pb.Playing = !pb.Playing
		PlaySFX(e, cfg.SoundPlay)
	}

	if GetAction(input, cfg.ActionStop).JustPressed {
		StopPlayback(e, pb, eng)
		PlaySFX(e, cfg.SoundStop)
	}

	if GetAction(input, cfg.ActionStepBack).JustPressed {
		pb.Playing = false
		requestSeek(pb, pb.Time-frameDur)
	}
	if GetAction(input, cfg.ActionStepForward).JustPressed {
		pb.Playing = false
		requestSeek(pb, pb.Time+frameDur)
	}
	if GetAction(input, cfg.ActionSeekStart).JustPressed {
		requestSeek(pb, 0)
	}
	if GetAction(input, cfg.ActionSeekEnd).JustPressed {
		requestSeek(pb, pb.Duration)
	}

	if GetAction(input, cfg.ActionSpeedDown).JustPressed && pb.SpeedIndex > 0 {
		pb.SpeedIndex--
		SetStatus(eng, fmt.Sprintf("speed %gx", cfg.Playback.SpeedSteps[pb.SpeedIndex]))
	}
	if GetAction(input, cfg.ActionSpeedUp).JustPressed && pb.SpeedIndex < len(cfg.Playback.SpeedSteps)-1 {
		pb.SpeedIndex++
		SetStatus(eng, fmt.Sprintf("speed %gx", cfg.Playback.SpeedSteps[pb.SpeedIndex]))
	}

	if GetAction(input, cfg.ActionToggleLoop).JustPressed {
		pb.Looping = !pb.Looping
		if pb.Looping {
			SetStatus(eng, "loop on")
		} else {
			SetStatus(eng, "loop off")
		}
	}

	if GetAction(input, cfg.ActionNextModel).JustPressed {
		cycleModel(pb, eng, 1)
	}
	if GetAction(input, cfg.ActionPrevModel).JustPressed {
		cycleModel(pb, eng, -1)
	}
}

// drainTransportCommands consumes the one-shot command entities the UI
// panel spawns and applies them exactly like the keyboard bindings.
func drainTransportCommands(e *ecs.ECS, pb *components.PlaybackData, eng *components.EngineData) {
	frameDur := 1.0 / eng.Manifest.EffectiveFrameRate(cfg.Playback.FrameRate)

	var done []*donburi.Entry
	components.TransportCommand.Each(e.World, func(entry *donburi.Entry) {
		done = append(done, entry)
		cmd := components.TransportCommand.Get(entry)
		switch cmd.Kind {
		case components.CmdTogglePlay:
			if !pb.Playing && pb.Duration > 0 && pb.Time >= pb.Duration {
				requestSeek(pb, 0)
			}
			pb.Playing = !pb.Playing
			PlaySFX(e, cfg.SoundPlay)
		case components.CmdStop:
			StopPlayback(e, pb, eng)
			PlaySFX(e, cfg.SoundStop)
		case components.CmdStepBack:
			pb.Playing = false
			requestSeek(pb, pb.Time-frameDur)
		case components.CmdStepForward:
			pb.Playing = false
			requestSeek(pb, pb.Time+frameDur)
		case components.CmdSeekStart:
			requestSeek(pb, 0)
		case components.CmdSeekEnd:
			requestSeek(pb, pb.Duration)
		case components.CmdSpeedDown:
			if pb.SpeedIndex > 0 {
				pb.SpeedIndex--
				SetStatus(eng, fmt.Sprintf("speed %gx", cfg.Playback.SpeedSteps[pb.SpeedIndex]))
			}
		case components.CmdSpeedUp:
			if pb.SpeedIndex < len(cfg.Playback.SpeedSteps)-1 {
				pb.SpeedIndex++
				SetStatus(eng, fmt.Sprintf("speed %gx", cfg.Playback.SpeedSteps[pb.SpeedIndex]))
			}
		case components.CmdToggleLoop:
			pb.Looping = !pb.Looping
		case components.CmdSelectModel:
			pb.SelectedModel = cmd.ModelID
		}
	})
	for _, entry := range done {
		entry.Remove()
	}
}

// StopPlayback halts the transport and tears down every live effect. The
// director emits final Ending updates so armatures settle on their rest pose.
func StopPlayback(e *ecs.ECS, pb *components.PlaybackData, eng *components.EngineData) {
	eng.Director.Stop()
	eng.Followers.Clear()
	eng.Scheduler.Reset()
	DestroyAllEffects(e)
	pb.Playing = false
	pb.ReplayCountdown = 0
	requestSeek(pb, 0)
}

func cycleModel(pb *components.PlaybackData, eng *components.EngineData, dir int) {
	models := eng.Manifest.Models
	if len(models) == 0 {
		return
	}
	idx := 0
	for i := range models {
		if models[i].ID == pb.SelectedModel {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(models)) % len(models)
	pb.SelectedModel = models[idx].ID
}

func requestSeek(pb *components.PlaybackData, t float64) {
	seek := t
	pb.PendingSeek = &seek
}

func clampTime(t, duration float64) float64 {
	if t < 0 {
		return 0
	}
	if duration > 0 && t > duration {
		return duration
	}
	return t
}
