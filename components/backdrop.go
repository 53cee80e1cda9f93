package components

import (
	"github.com/hatoba/efkstage/assets"
	"github.com/yohamta/donburi"
)

type BackdropData struct {
	Current    *assets.Stage
	StageIndex int
	Stages     []assets.Stage
}

var Backdrop = donburi.NewComponentType[BackdropData]()
