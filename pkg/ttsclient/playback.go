package ttsclient

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// Player plays one MP3 clip and returns when it has finished or ctx is done.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// Slot allows one playback at a time. Starting a new one cancels the
// current one and waits for it to return, so outputs never overlap.
type Slot struct {
	player Player

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSlot(p Player) *Slot {
	return &Slot{player: p}
}

// Play stops whatever is playing, then plays audio. It returns
// context.Canceled if a later Play, PlayFetched or Stop interrupts it.
func (s *Slot) Play(ctx context.Context, audio []byte) error {
	ctx, release := s.claim(ctx)
	defer release()
	return s.player.Play(ctx, audio)
}

// PlayFetched claims the slot, then fetches p through c and plays it. A
// later claim cancels the fetch as well as the playback, so a superseded
// request never reaches the player.
func (s *Slot) PlayFetched(ctx context.Context, c *Client, p Params) (Result, error) {
	ctx, release := s.claim(ctx)
	defer release()

	res, err := c.Fetch(ctx, p)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return res, s.player.Play(ctx, res.Audio)
}

// claim stops the current holder and installs a new one. release must be
// called once the holder is finished.
func (s *Slot) claim(ctx context.Context) (context.Context, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	return ctx, func() {
		cancel()
		close(done)
	}
}

// Stop cancels the current playback, if any, and waits for it to return.
func (s *Slot) Stop() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

func (s *Slot) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
}

// ExecPlayer plays clips with an external command such as mpg123 or ffplay.
// The clip is written to a temporary file whose path is appended to Args.
type ExecPlayer struct {
	Command string
	Args    []string
	TempDir string // default: os.TempDir()
}

// DefaultPlayerCommand is tried when no command is configured.
var DefaultPlayerCommand = []string{"mpg123", "-q"}

func (p *ExecPlayer) Play(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return errors.New("player: empty audio")
	}
	command, args := p.Command, p.Args
	if command == "" {
		command, args = DefaultPlayerCommand[0], DefaultPlayerCommand[1:]
	}
	if _, err := exec.LookPath(command); err != nil {
		return fmt.Errorf("player: %w", err)
	}

	f, err := os.CreateTemp(p.TempDir, "pronounce-*.mp3")
	if err != nil {
		return fmt.Errorf("player: temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(audio); err != nil {
		f.Close()
		return fmt.Errorf("player: write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("player: close temp file: %w", err)
	}

	cmd := exec.CommandContext(ctx, command, append(append([]string(nil), args...), path)...) //nolint:gosec
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("player: %s: %w", command, err)
	}
	return nil
}
