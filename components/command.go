package components

import "github.com/yohamta/donburi"

// TransportCommandKind enumerates the transport actions the UI panel can
// request.
type TransportCommandKind int

const (
	CmdTogglePlay TransportCommandKind = iota
	CmdStop
	CmdStepBack
	CmdStepForward
	CmdSeekStart
	CmdSeekEnd
	CmdSpeedDown
	CmdSpeedUp
	CmdToggleLoop
	CmdSelectModel
)

// TransportCommandData is a one-shot command entity: the UI panel spawns
// one per click and the playback system drains them at the start of its
// tick, same flow as the keyboard bindings.
type TransportCommandData struct {
	Kind    TransportCommandKind
	ModelID string // CmdSelectModel only
}

var TransportCommand = donburi.NewComponentType[TransportCommandData]()
