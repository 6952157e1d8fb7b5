package main

import (
	"image/color"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

// LobbyUI is the overlay shown between rounds: the play button in practice
// mode, and the create/join/submit controls in duel mode.
type LobbyUI struct {
	UI *ebitenui.UI

	title   *widget.Text
	info    *widget.Text
	status  *widget.Text
	history *widget.Text

	playBtn      *widget.Button
	forms        *widget.Container
	copyBtn      *widget.Button
	leaveBtn     *widget.Button
	submitBtn    *widget.Button
	createBtn    *widget.Button
	approveBtn   *widget.Button
	stakeInput   *widget.TextInput
	approveInput *widget.TextInput
	joinInput    *widget.TextInput

	busy bool
}

// LobbyActions are the handlers the lobby calls back into.
type LobbyActions struct {
	Play    func()
	Create  func(stake string)
	Join    func(id string)
	Approve func(amount string)
	Copy    func()
	Paste   func() string
	Leave   func()
	Submit  func()
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func NewLobbyUI(width, height int, actions LobbyActions) *LobbyUI {
	panelImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 200})
	btnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255})
	btnPressedImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 255})
	inputImg := &widget.TextInputImage{
		Idle:     imageui.NewNineSliceColor(color.NRGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff}),
		Disabled: imageui.NewNineSliceColor(color.NRGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff}),
	}
	inputColor := &widget.TextInputColor{Idle: color.Black, Disabled: color.Gray{Y: 120}, Caret: color.Black}

	var face ebtext.Face = ebtext.NewGoXFace(basicfont.Face7x13)
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	gold := color.NRGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff}
	btnTextColor := &widget.ButtonTextColor{Idle: white}
	center := widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter})

	l := &LobbyUI{}
	newText := func(clr color.Color) *widget.Text {
		return widget.NewText(
			widget.TextOpts.Text("", &face, clr),
			widget.TextOpts.WidgetOpts(center),
		)
	}
	newButton := func(label string, onClick func()) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Pressed: btnPressedImg}),
			widget.ButtonOpts.Text(label, &face, btnTextColor),
			widget.ButtonOpts.WidgetOpts(center),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				if l.busy {
					return
				}
				call(onClick)
			}),
		)
	}
	newInput := func() *widget.TextInput {
		return widget.NewTextInput(
			widget.TextInputOpts.WidgetOpts(widget.WidgetOpts.MinSize(120, 22)),
			widget.TextInputOpts.Image(inputImg),
			widget.TextInputOpts.Color(inputColor),
			widget.TextInputOpts.Face(&face),
		)
	}
	row := func() *widget.Container {
		return widget.NewContainer(
			widget.ContainerOpts.Layout(widget.NewRowLayout(
				widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
				widget.RowLayoutOpts.Spacing(8),
			)),
			widget.ContainerOpts.WidgetOpts(center),
		)
	}
	label := func(s string) *widget.Text {
		return widget.NewText(widget.TextOpts.Text(s, &face, white))
	}

	l.title = newText(gold)
	l.info = newText(white)
	l.status = newText(color.NRGBA{R: 0xa0, G: 0xe0, B: 0xff, A: 0xff})
	l.history = newText(color.NRGBA{R: 0xbb, G: 0xbb, B: 0xbb, A: 0xff})

	l.playBtn = newButton("Start Game", actions.Play)

	l.stakeInput = newInput()
	l.approveInput = newInput()
	l.joinInput = newInput()
	l.createBtn = newButton("Create Duel", func() { call1(actions.Create, l.stakeInput.GetText()) })
	l.approveBtn = newButton("Approve", func() { call1(actions.Approve, l.approveInput.GetText()) })
	createRow := row()
	createRow.AddChild(label("Stake"))
	createRow.AddChild(l.stakeInput)
	createRow.AddChild(l.createBtn)
	approveRow := row()
	approveRow.AddChild(label("Amount"))
	approveRow.AddChild(l.approveInput)
	approveRow.AddChild(l.approveBtn)
	joinRow := row()
	joinRow.AddChild(label("Duel ID"))
	joinRow.AddChild(l.joinInput)
	joinRow.AddChild(newButton("Paste", func() {
		if actions.Paste != nil {
			l.joinInput.SetText(actions.Paste())
		}
	}))
	joinRow.AddChild(newButton("Join Duel", func() { call1(actions.Join, l.joinInput.GetText()) }))

	l.forms = widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(8),
		)),
		widget.ContainerOpts.WidgetOpts(center),
	)
	l.forms.AddChild(approveRow)
	l.forms.AddChild(createRow)
	l.forms.AddChild(joinRow)

	l.copyBtn = newButton("Copy Duel ID", actions.Copy)
	l.submitBtn = newButton("Submit Winner", actions.Submit)
	l.leaveBtn = newButton("Back to Lobby", actions.Leave)

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(10),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 20, Bottom: 20, Left: 20, Right: 20}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(width*3/4, height/2),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{HorizontalPosition: widget.AnchorLayoutPositionCenter, VerticalPosition: widget.AnchorLayoutPositionCenter}),
		),
	)
	for _, w := range []widget.PreferredSizeLocateableWidget{
		l.title, l.info, l.playBtn, l.forms, l.copyBtn, l.submitBtn, l.leaveBtn, l.status, l.history,
	} {
		panel.AddChild(w)
	}

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	l.UI = &ebitenui.UI{Container: root}
	return l
}

func call1(fn func(string), arg string) {
	if fn != nil {
		fn(arg)
	}
}

// Apply shows st on the overlay.
func (l *LobbyUI) Apply(st lobbyState) {
	l.title.Label = st.Title
	l.info.Label = st.Info
	l.status.Label = st.Status
	l.history.Label = st.History
	if t := l.playBtn.Text(); t != nil {
		t.Label = st.PlayLabel
	}
	l.busy = !st.Interactive

	setVisible(l.playBtn.GetWidget(), st.ShowPlay)
	setVisible(l.forms.GetWidget(), st.ShowForms)
	setVisible(l.copyBtn.GetWidget(), st.ShowCopy)
	setVisible(l.leaveBtn.GetWidget(), st.ShowLeave)
	setVisible(l.submitBtn.GetWidget(), st.ShowSubmit)
}

func setVisible(w *widget.Widget, visible bool) {
	if visible {
		w.Visibility = widget.Visibility_Show
	} else {
		w.Visibility = widget.Visibility_Hide
	}
}
