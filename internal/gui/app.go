package gui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	fynetooltip "github.com/dweymouth/fyne-tooltip"
	ttwidget "github.com/dweymouth/fyne-tooltip/widget"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/iqra/internal"
	"codeberg.org/snonux/iqra/internal/audio"
	"codeberg.org/snonux/iqra/internal/batch"
	"codeberg.org/snonux/iqra/internal/mapping"
	"codeberg.org/snonux/iqra/internal/playback"
	"codeberg.org/snonux/iqra/internal/validator"
)

// Application represents the main GUI application
type Application struct {
	// Fyne components
	app    fyne.App
	window fyne.Window

	// Pronunciation board
	letterButtons []*PronounceButton
	wordButtons   []*PronounceButton

	// Practice row
	textEntry      *widget.Entry
	verseEntry     *widget.Entry
	playButton     *ttwidget.Button
	stopButton     *ttwidget.Button
	validateButton *ttwidget.Button

	statusLabel *widget.Label
	logViewer   *LogViewer

	config *audio.Config
	player *audio.Player

	ctx    context.Context
	cancel context.CancelFunc
}

// Run builds the application from config and blocks until the window is
// closed
func Run(config *audio.Config) error {
	player, err := audio.NewPlayerFromConfig(config)
	if err != nil {
		return err
	}

	a := New(app.NewWithID("org.codeberg.snonux.iqra"), config, player)
	a.window.ShowAndRun()
	return nil
}

// New creates the application on fyneApp. The window is not shown.
func New(fyneApp fyne.App, config *audio.Config, player *audio.Player) *Application {
	if config == nil {
		config = audio.DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Application{
		app:    fyneApp,
		config: config,
		player: player,
		ctx:    ctx,
		cancel: cancel,
	}
	a.app.SetIcon(GetAppIcon())
	a.setupUI()
	return a
}

func (a *Application) setupUI() {
	a.window = a.app.NewWindow(fmt.Sprintf("Iqra v%s - Arabic Pronunciation", internal.Version))
	a.window.SetIcon(GetAppIcon())
	a.window.Resize(fyne.NewSize(720, 640))

	// Mirror log output into the window
	a.logViewer = NewLogViewer()
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        io.MultiWriter(os.Stderr, a.logViewer),
		NoColor:    true,
		TimeFormat: time.Kitchen,
	})

	a.letterButtons = a.newBoard(mapping.Letters)
	a.wordButtons = a.newBoard(mapping.Words)

	tabs := container.NewAppTabs(
		container.NewTabItem("Letters", container.NewVScroll(container.NewGridWithColumns(7, buttonObjects(a.letterButtons)...))),
		container.NewTabItem("Words", container.NewVScroll(container.NewGridWithColumns(4, buttonObjects(a.wordButtons)...))),
	)

	// Practice row
	a.textEntry = widget.NewEntry()
	a.textEntry.SetPlaceHolder("Arabic text...")
	a.textEntry.OnSubmitted = func(string) {
		a.onPlayPractice()
		a.window.Canvas().Unfocus()
	}

	a.verseEntry = widget.NewEntry()
	a.verseEntry.SetPlaceHolder("Verse (e.g. 1:1)")
	a.verseEntry.OnSubmitted = a.textEntry.OnSubmitted

	a.playButton = ttwidget.NewButtonWithIcon("", theme.MediaPlayIcon(), a.onPlayPractice)
	a.stopButton = ttwidget.NewButtonWithIcon("", theme.MediaStopIcon(), a.onStop)
	a.stopButton.Disable()
	a.validateButton = ttwidget.NewButtonWithIcon("", theme.SearchIcon(), a.onValidate)
	helpButton := ttwidget.NewButtonWithIcon("", theme.HelpIcon(), a.onShowHotkeys)

	practice := container.NewBorder(
		nil, nil,
		nil,
		container.NewHBox(a.verseEntry, a.playButton, a.stopButton, a.validateButton, helpButton),
		a.textEntry,
	)

	a.statusLabel = widget.NewLabel("Ready")

	content := container.NewBorder(
		container.NewVBox(practice, widget.NewSeparator()),
		container.NewVBox(a.statusLabel, widget.NewSeparator(), a.logViewer),
		nil, nil,
		tabs,
	)

	// Add the tooltip layer to enable tooltips
	a.window.SetContent(fynetooltip.AddWindowToolTipLayer(content, a.window.Canvas()))

	a.playButton.SetToolTip("Play practice text (Enter)")
	a.stopButton.SetToolTip("Stop playback (Esc)")
	a.validateButton.SetToolTip(fmt.Sprintf("Check assets in %s (v)", a.config.AssetBase))
	helpButton.SetToolTip("Show hotkeys (h)")

	a.player.Machine().Subscribe(func(tr playback.Transition) {
		fyne.Do(func() { a.renderState(tr.To) })
	})

	a.window.SetOnClosed(func() {
		a.cancel()
		a.player.Close()
		for _, b := range a.allButtons() {
			b.Destroy()
		}
	})

	a.setupKeyboardShortcuts()
}

// newBoard creates one button per table entry
func (a *Application) newBoard(table *mapping.Table) []*PronounceButton {
	var buttons []*PronounceButton
	for _, e := range table.Entries() {
		b := NewPronounceButton(a.player, audio.Request{Text: e.Token}, e.Path)
		b.OnResult = a.onResult
		buttons = append(buttons, b)
	}
	return buttons
}

func buttonObjects(buttons []*PronounceButton) []fyne.CanvasObject {
	objects := make([]fyne.CanvasObject, len(buttons))
	for i, b := range buttons {
		objects[i] = b
	}
	return objects
}

func (a *Application) allButtons() []*PronounceButton {
	return append(append([]*PronounceButton{}, a.letterButtons...), a.wordButtons...)
}

// renderState updates the controls that are not pronunciation buttons
func (a *Application) renderState(state playback.State) {
	switch state {
	case playback.Loading:
		a.statusLabel.SetText("Loading...")
		a.playButton.Disable()
		a.stopButton.Disable()
	case playback.Playing:
		a.statusLabel.SetText("Playing...")
		a.playButton.Disable()
		a.stopButton.Enable()
	default:
		a.playButton.Enable()
		a.stopButton.Disable()
	}
}

func (a *Application) onResult(req *audio.Request, outcome *audio.Outcome, err error) {
	switch {
	case err != nil:
		a.updateStatus("Error: " + err.Error())
	case outcome.Source == nil:
		a.updateStatus(fmt.Sprintf("No audio available for %s", req.Text))
	case outcome.Reentered:
		a.updateStatus(fmt.Sprintf("%s: recording failed, spoken instead", req.Text))
	default:
		a.updateStatus(fmt.Sprintf("%s: %s", req.Text, outcome.Source))
	}
}

// practiceRequest builds a request from the practice row
func (a *Application) practiceRequest() (*audio.Request, error) {
	req := &audio.Request{Text: a.textEntry.Text}
	if err := audio.ValidateText(req.Text); err != nil {
		return nil, err
	}

	if ref := strings.TrimSpace(a.verseEntry.Text); ref != "" {
		surah, ayah, err := batch.ParseVerse(ref)
		if err != nil {
			return nil, err
		}
		req.Surah, req.Ayah = surah, ayah
	}
	return req, nil
}

func (a *Application) onPlayPractice() {
	if !a.player.Machine().Enabled() {
		return
	}
	req, err := a.practiceRequest()
	if err != nil {
		a.showError(err)
		return
	}

	go func() {
		outcome, err := a.player.Play(a.ctx, req)
		fyne.Do(func() { a.onResult(req, outcome, err) })
	}()
}

func (a *Application) onStop() {
	a.player.Stop()
}

func (a *Application) onValidate() {
	a.validateButton.Disable()
	a.updateStatus("Checking assets...")

	go func() {
		summary := a.runValidation(a.ctx)
		fyne.Do(func() {
			a.validateButton.Enable()
			a.updateStatus(fmt.Sprintf("Assets: %d of %d found (%d%%)",
				summary.Total.Found, summary.Total.Total, summary.Total.Percent()))
		})
	}()
}

// runValidation checks the configured assets and writes the report and the
// missing paths to the log viewer
func (a *Application) runValidation(ctx context.Context) validator.Summary {
	checker := validator.NewChecker(a.config.AssetBase, a.config.HTTPClient())
	summary := validator.ValidateAll(ctx, checker)

	var report strings.Builder
	validator.WriteReport(&report, summary)
	a.logViewer.Write([]byte(report.String()))
	return summary
}

func (a *Application) onShowHotkeys() {
	hotkeys := widget.NewLabel(`Enter   Play practice text
Esc     Stop playback and leave the text field
t       Focus the practice text field
v       Check assets
h       Show this help
q       Quit`)
	dialog.ShowCustom("Keyboard Shortcuts", "Close", hotkeys, a.window)
}

// setupKeyboardShortcuts sets up keyboard shortcuts for the application
func (a *Application) setupKeyboardShortcuts() {
	a.window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			a.onStop()
			a.window.Canvas().Unfocus()
		}
	})

	a.window.Canvas().SetOnTypedRune(func(r rune) {
		// Let characters be typed into the practice row
		focused := a.window.Canvas().Focused()
		if focused == a.textEntry || focused == a.verseEntry {
			return
		}

		switch r {
		case 't', 'T':
			a.window.Canvas().Focus(a.textEntry)
		case 'v', 'V':
			if !a.validateButton.Disabled() {
				a.onValidate()
			}
		case 'h', 'H':
			a.onShowHotkeys()
		case 'q', 'Q':
			a.window.Close()
		}
	})
}

func (a *Application) updateStatus(message string) {
	a.statusLabel.SetText(message)
}

func (a *Application) showError(err error) {
	dialog.ShowError(err, a.window)
	a.updateStatus("Error: " + err.Error())
}
