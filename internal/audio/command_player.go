package audio

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// FilePlayer plays a local audio file, blocking until it ends
type FilePlayer interface {
	PlayFile(ctx context.Context, file string) error
}

// CommandPlayer plays files with an external command-line player
type CommandPlayer struct {
	// Command overrides player detection, e.g. "mpv --no-video"
	Command string

	lookPath func(string) (string, error)
	goos     string
}

// NewCommandPlayer creates a player. An empty command selects a player for
// the current platform.
func NewCommandPlayer(command string) *CommandPlayer {
	return &CommandPlayer{
		Command:  command,
		lookPath: exec.LookPath,
		goos:     runtime.GOOS,
	}
}

// linuxPlayers in order of preference; mpg123 handles MP3 best
var linuxPlayers = [][]string{
	{"mpg123", "-q"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"play", "-q"},
	{"paplay"},
	{"aplay", "-q"},
}

// commandLine returns the player argv for file
func (p *CommandPlayer) commandLine(file string) ([]string, error) {
	if fields := strings.Fields(p.Command); len(fields) > 0 {
		return append(fields, file), nil
	}

	switch p.goos {
	case "darwin":
		return []string{"afplay", file}, nil
	case "linux", "freebsd", "openbsd":
		for _, candidate := range linuxPlayers {
			if _, err := p.lookPath(candidate[0]); err == nil {
				args := append([]string{}, candidate...)
				return append(args, file), nil
			}
		}
		return nil, fmt.Errorf("no audio player found. Install mpg123, ffplay, sox, paplay, or aplay")
	case "windows":
		return []string{"cmd", "/c", "start", "/min", "/wait", file}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", p.goos)
	}
}

// IsAvailable checks that a player command can be found
func (p *CommandPlayer) IsAvailable() error {
	argv, err := p.commandLine("probe")
	if err != nil {
		return err
	}
	if _, err := p.lookPath(argv[0]); err != nil {
		return fmt.Errorf("audio player %s not found: %w", argv[0], err)
	}
	return nil
}

// PlayFile runs the player and waits for it to exit
func (p *CommandPlayer) PlayFile(ctx context.Context, file string) error {
	argv, err := p.commandLine(file)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed: %w\nOutput: %s", argv[0], err, strings.TrimSpace(string(output)))
	}
	return nil
}
