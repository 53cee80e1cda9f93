package manifest

import (
	"errors"
	"fmt"

	"github.com/hatoba/efkstage/stage"
)

// Validation sentinels. Validate wraps them with the offending path, so
// callers match with errors.Is.
var (
	ErrMissingID     = errors.New("missing id")
	ErrDuplicateID   = errors.New("duplicate id")
	ErrFrameNegative = errors.New("frame is negative")
	ErrBadDuration   = errors.New("duration must be positive")
	ErrBadRange      = errors.New("clip range is inverted")
	ErrUnknownClip   = errors.New("unknown clip")
	ErrUnknownBone   = errors.New("unknown bone")
	ErrUnknownModel  = errors.New("unknown model")
)

// Validate checks referential integrity and value ranges across the whole
// document. Clip and procedural IDs share one namespace because the engine
// keys interpolation baselines by clip ID.
func (m *Manifest) Validate() error {
	if m.FrameRate < 0 {
		return fmt.Errorf("frame_rate %v: %w", m.FrameRate, ErrBadDuration)
	}
	if m.LoopDelaySec < 0 {
		return fmt.Errorf("loop_delay_sec %v: %w", m.LoopDelaySec, ErrBadDuration)
	}

	clipIDs := make(map[string]struct{})
	modelIDs := make(map[string]struct{})
	for i := range m.Models {
		if err := m.validateModel(&m.Models[i], modelIDs, clipIDs); err != nil {
			return err
		}
	}

	effectIDs := make(map[string]struct{})
	for i := range m.Effects {
		if err := m.validateEffect(&m.Effects[i], effectIDs, clipIDs); err != nil {
			return err
		}
	}

	for i := range m.Tracks {
		if err := m.validateTrack(&m.Tracks[i], clipIDs); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manifest) validateModel(md *Model, modelIDs, clipIDs map[string]struct{}) error {
	if md.ID == "" {
		return fmt.Errorf("model %q: %w", md.Name, ErrMissingID)
	}
	if _, ok := modelIDs[md.ID]; ok {
		return fmt.Errorf("model %q: %w", md.ID, ErrDuplicateID)
	}
	modelIDs[md.ID] = struct{}{}

	boneNames := make(map[string]struct{}, len(md.Bones))
	for i := range md.Bones {
		b := &md.Bones[i]
		if b.Name == "" {
			return fmt.Errorf("model %q bone %d: %w", md.ID, i, ErrMissingID)
		}
		if _, ok := boneNames[b.Name]; ok {
			return fmt.Errorf("model %q bone %q: %w", md.ID, b.Name, ErrDuplicateID)
		}
		boneNames[b.Name] = struct{}{}
	}
	// Parents may be declared in any order, so they resolve in a second pass.
	for i := range md.Bones {
		b := &md.Bones[i]
		if b.Parent == "" {
			continue
		}
		if _, ok := boneNames[b.Parent]; !ok {
			return fmt.Errorf("model %q bone %q parent %q: %w", md.ID, b.Name, b.Parent, ErrUnknownBone)
		}
	}

	for i := range md.Clips {
		c := &md.Clips[i]
		if c.ID == "" {
			return fmt.Errorf("model %q clip %q: %w", md.ID, c.Name, ErrMissingID)
		}
		if _, ok := clipIDs[c.ID]; ok {
			return fmt.Errorf("model %q clip %q: %w", md.ID, c.ID, ErrDuplicateID)
		}
		clipIDs[c.ID] = struct{}{}
		if c.Start < 0 {
			return fmt.Errorf("clip %q start %d: %w", c.ID, c.Start, ErrFrameNegative)
		}
		if c.End < c.Start {
			return fmt.Errorf("clip %q range [%d, %d]: %w", c.ID, c.Start, c.End, ErrBadRange)
		}
		for _, p := range c.Poses {
			if p.Frame < 0 {
				return fmt.Errorf("clip %q pose for %q: %w", c.ID, p.Bone, ErrFrameNegative)
			}
			if _, ok := boneNames[p.Bone]; !ok {
				return fmt.Errorf("clip %q pose bone %q: %w", c.ID, p.Bone, ErrUnknownBone)
			}
		}
	}
	return nil
}

func (m *Manifest) validateEffect(e *Effect, effectIDs, clipIDs map[string]struct{}) error {
	if e.ID == "" {
		return fmt.Errorf("effect %q: %w", e.Name, ErrMissingID)
	}
	if _, ok := effectIDs[e.ID]; ok {
		return fmt.Errorf("effect %q: %w", e.ID, ErrDuplicateID)
	}
	effectIDs[e.ID] = struct{}{}

	if e.Bone != "" {
		if err := m.checkBoneRef(e.Bone); err != nil {
			return fmt.Errorf("effect %q: %w", e.ID, err)
		}
	}

	triggerIDs := make(map[string]struct{}, len(e.Triggers))
	for _, t := range e.Triggers {
		if t.ID == "" {
			return fmt.Errorf("effect %q trigger: %w", e.ID, ErrMissingID)
		}
		if _, ok := triggerIDs[t.ID]; ok {
			return fmt.Errorf("effect %q trigger %q: %w", e.ID, t.ID, ErrDuplicateID)
		}
		triggerIDs[t.ID] = struct{}{}
		if t.Frame < 0 {
			return fmt.Errorf("effect %q trigger %q frame %d: %w", e.ID, t.ID, t.Frame, ErrFrameNegative)
		}
		if t.DurationSec < 0 {
			return fmt.Errorf("effect %q trigger %q: %w", e.ID, t.ID, ErrBadDuration)
		}
		if _, ok := clipIDs[t.Clip]; !ok {
			return fmt.Errorf("effect %q trigger %q clip %q: %w", e.ID, t.ID, t.Clip, ErrUnknownClip)
		}
	}
	return nil
}

func (m *Manifest) checkBoneRef(ref string) error {
	modelID, bone, ok := SplitBoneRef(stage.BoneRef(ref))
	if !ok {
		return fmt.Errorf("bone ref %q wants model/bone form: %w", ref, ErrUnknownBone)
	}
	md, found := m.Model(modelID)
	if !found {
		return fmt.Errorf("bone ref %q model: %w", ref, ErrUnknownModel)
	}
	if _, found := md.Bone(bone); !found {
		return fmt.Errorf("bone ref %q: %w", ref, ErrUnknownBone)
	}
	return nil
}

func (m *Manifest) validateTrack(td *TrackDef, clipIDs map[string]struct{}) error {
	md, ok := m.Model(td.Model)
	if !ok {
		return fmt.Errorf("track model %q: %w", td.Model, ErrUnknownModel)
	}
	for _, e := range td.Entries {
		if _, ok := md.Clip(e.Clip); !ok {
			return fmt.Errorf("track %q entry clip %q: %w", td.Model, e.Clip, ErrUnknownClip)
		}
		if e.At < 0 || e.Duration < 0 {
			return fmt.Errorf("track %q entry %q: %w", td.Model, e.Clip, ErrBadDuration)
		}
	}
	for _, p := range td.Procedural {
		if p.ID == "" {
			return fmt.Errorf("track %q procedural: %w", td.Model, ErrMissingID)
		}
		if _, ok := clipIDs[p.ID]; ok {
			return fmt.Errorf("track %q procedural %q: %w", td.Model, p.ID, ErrDuplicateID)
		}
		clipIDs[p.ID] = struct{}{}
		if p.Duration <= 0 {
			return fmt.Errorf("track %q procedural %q: %w", td.Model, p.ID, ErrBadDuration)
		}
		if p.Start < 0 {
			return fmt.Errorf("track %q procedural %q start: %w", td.Model, p.ID, ErrBadDuration)
		}
	}
	return nil
}
