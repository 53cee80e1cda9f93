package ui

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/ebitenui/ebitenui"
	"github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hatoba/efkstage/components"
	cfg "github.com/hatoba/efkstage/config"
	"golang.org/x/image/font/gofont/goregular"
)

// TransportUI is the clickable transport bar above the timeline strip.
// Every button spawns a one-shot command entity through Push; the playback
// system drains them, so mouse clicks and key bindings share one code
// path.
type TransportUI struct {
	UI *ebitenui.UI

	// Push hands a command to the host world. Set by the stage scene.
	Push func(components.TransportCommandData)

	playButton *widget.Button
	loopButton *widget.Button
	speedLabel *widget.Label

	normalFace text.Face
	smallFace  text.Face

	initialized bool
}

// NewTransportUI builds the bar. push receives one command per click.
func NewTransportUI(push func(components.TransportCommandData)) *TransportUI {
	tui := &TransportUI{Push: push}
	tui.loadFonts()
	tui.buildUI()
	return tui
}

func (tui *TransportUI) loadFonts() {
	fontSource, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		panic(err)
	}
	tui.normalFace = &text.GoTextFace{Source: fontSource, Size: 13}
	tui.smallFace = &text.GoTextFace{Source: fontSource, Size: 11}
}

func (tui *TransportUI) buildUI() {
	// Root fills the screen; the bar anchors bottom-center, padded up
	// past the timeline strip.
	anchorPadding := widget.Insets{Bottom: int(cfg.Timeline.Height) + 8}
	rootContainer := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout(
			widget.AnchorLayoutOpts.Padding(&anchorPadding),
		)),
	)

	barPadding := widget.Insets{Top: 4, Bottom: 4, Left: 6, Right: 6}
	bar := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(image.NewNineSliceColor(color.RGBA{24, 24, 34, 230})),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
			widget.RowLayoutOpts.Padding(&barPadding),
			widget.RowLayoutOpts.Spacing(4),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{
				HorizontalPosition: widget.AnchorLayoutPositionCenter,
				VerticalPosition:   widget.AnchorLayoutPositionEnd,
			}),
		),
	)

	bar.AddChild(tui.commandButton("|<", 28, components.CmdSeekStart))
	bar.AddChild(tui.commandButton("<", 28, components.CmdStepBack))
	tui.playButton = tui.commandButton("Play", 54, components.CmdTogglePlay)
	bar.AddChild(tui.playButton)
	bar.AddChild(tui.commandButton(">", 28, components.CmdStepForward))
	bar.AddChild(tui.commandButton(">|", 28, components.CmdSeekEnd))
	bar.AddChild(tui.commandButton("Stop", 44, components.CmdStop))
	tui.loopButton = tui.commandButton("Loop", 44, components.CmdToggleLoop)
	bar.AddChild(tui.loopButton)

	bar.AddChild(tui.commandButton("-", 24, components.CmdSpeedDown))
	tui.speedLabel = widget.NewLabel(
		widget.LabelOpts.Text("1x", &tui.normalFace, &widget.LabelColor{
			Idle: color.RGBA{255, 255, 255, 255},
		}),
	)
	bar.AddChild(tui.speedLabel)
	bar.AddChild(tui.commandButton("+", 24, components.CmdSpeedUp))

	rootContainer.AddChild(bar)

	tui.UI = &ebitenui.UI{
		Container: rootContainer,
	}
}

func (tui *TransportUI) commandButton(label string, minWidth int, kind components.TransportCommandKind) *widget.Button {
	return widget.NewButton(
		widget.ButtonOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(minWidth, 22),
		),
		widget.ButtonOpts.Image(tui.buttonImage()),
		widget.ButtonOpts.Text(label, &tui.smallFace, &widget.ButtonTextColor{
			Idle:    color.RGBA{230, 230, 240, 255},
			Hover:   color.RGBA{255, 255, 200, 255},
			Pressed: color.RGBA{180, 180, 190, 255},
		}),
		widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
			if tui.Push != nil {
				tui.Push(components.TransportCommandData{Kind: kind})
			}
		}),
	)
}

func (tui *TransportUI) buttonImage() *widget.ButtonImage {
	idle := image.NewNineSliceColor(color.RGBA{50, 52, 70, 255})
	hover := image.NewNineSliceColor(color.RGBA{70, 74, 96, 255})
	pressed := image.NewNineSliceColor(color.RGBA{36, 38, 52, 255})
	disabled := image.NewNineSliceColor(color.RGBA{40, 40, 40, 255})

	return &widget.ButtonImage{
		Idle:     idle,
		Hover:    hover,
		Pressed:  pressed,
		Disabled: disabled,
	}
}

// Refresh mirrors the transport state onto the widgets.
func (tui *TransportUI) Refresh(pb *components.PlaybackData) {
	if tui.playButton != nil {
		if textWidget := tui.playButton.Text(); textWidget != nil {
			if pb.Playing {
				textWidget.Label = "Pause"
			} else {
				textWidget.Label = "Play"
			}
		}
	}
	if tui.loopButton != nil {
		if textWidget := tui.loopButton.Text(); textWidget != nil {
			if pb.Looping {
				textWidget.Label = "Loop*"
			} else {
				textWidget.Label = "Loop"
			}
		}
	}
	if tui.speedLabel != nil {
		tui.speedLabel.Label = fmt.Sprintf("%gx", cfg.Playback.SpeedSteps[pb.SpeedIndex])
	}
}

// Update advances the ebitenui state machine. Called once per tick by the
// stage scene.
func (tui *TransportUI) Update() {
	tui.UI.Update()
	if !tui.initialized {
		tui.initialized = true
	}
}
