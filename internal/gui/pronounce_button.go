package gui

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"

	"codeberg.org/snonux/iqra/internal/audio"
	"codeberg.org/snonux/iqra/internal/playback"
)

// PronounceButton plays one token through the shared player. It follows the
// player's state machine and is only enabled while the machine is idle.
type PronounceButton struct {
	widget.BaseWidget

	button  *ttwidget.Button
	player  *audio.Player
	request audio.Request

	// OnResult is called on the UI thread after each activation
	OnResult func(req *audio.Request, outcome *audio.Outcome, err error)

	unsubscribe func()
}

// NewPronounceButton creates a button for req. tooltip may be empty.
func NewPronounceButton(player *audio.Player, req audio.Request, tooltip string) *PronounceButton {
	b := &PronounceButton{player: player, request: req}

	b.button = ttwidget.NewButtonWithIcon(req.Text, theme.VolumeUpIcon(), b.onTap)
	if tooltip != "" {
		b.button.SetToolTip(tooltip)
	}

	b.render(player.Machine().State())
	b.unsubscribe = player.Machine().Subscribe(func(tr playback.Transition) {
		fyne.Do(func() { b.render(tr.To) })
	})

	b.ExtendBaseWidget(b)
	return b
}

// CreateRenderer implements fyne.Widget
func (b *PronounceButton) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.button)
}

// Text returns the token the button pronounces
func (b *PronounceButton) Text() string {
	return b.request.Text
}

// Disabled reports whether the button currently rejects taps
func (b *PronounceButton) Disabled() bool {
	return b.button.Disabled()
}

// Activate plays the token and blocks until playback is over. Each
// activation gets a fresh request.
func (b *PronounceButton) Activate(ctx context.Context) (*audio.Outcome, error) {
	req := b.request
	outcome, err := b.player.Play(ctx, &req)
	if b.OnResult != nil {
		fyne.Do(func() { b.OnResult(&req, outcome, err) })
	}
	return outcome, err
}

func (b *PronounceButton) onTap() {
	if !b.player.Machine().Enabled() {
		return
	}
	go b.Activate(context.Background())
}

// render maps the machine state onto the button
func (b *PronounceButton) render(state playback.State) {
	switch state {
	case playback.Loading:
		b.button.SetIcon(theme.ViewRefreshIcon())
		b.button.Importance = widget.MediumImportance
		b.button.Disable()
	case playback.Playing:
		b.button.SetIcon(theme.MediaPlayIcon())
		b.button.Importance = widget.HighImportance
		b.button.Disable()
	default:
		b.button.SetIcon(theme.VolumeUpIcon())
		b.button.Importance = widget.MediumImportance
		b.button.Enable()
	}
}

// Destroy detaches the button from the player
func (b *PronounceButton) Destroy() {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}
