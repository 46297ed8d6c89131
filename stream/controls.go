package stream

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/tmpim/invader"
)

// Errors returned by the controls when the producer is in the wrong state.
var (
	ErrNotStopped = errors.New("invader stream: play: producer must be stopped to play")
	ErrNotPlaying = errors.New("invader stream: pause: producer is not playing")
	ErrNotPaused  = errors.New("invader stream: resume: producer is not paused")
	ErrStopped    = errors.New("invader stream: stop: producer is already stopped")
)

// Frame is one produced invader in both of its wire forms.
type Frame struct {
	Seed   int64
	PNG    []byte
	Sprite []byte
}

// Render renders the single invader of the given seed.
func (s *Manager) Render(ctx context.Context, seed int64) (*Frame, error) {
	opts := s.opts
	opts.Context = ctx
	opts.Seed = seed

	result, err := invader.RenderSingle(opts)
	if err != nil {
		return nil, err
	}

	img := new(bytes.Buffer)
	if err := invader.Encode(img, result.Image, "png"); err != nil {
		return nil, err
	}

	sprite, err := invader.NewSpriteFrame(result.Sprites[0])
	if err != nil {
		return nil, err
	}

	raw := new(bytes.Buffer)
	if _, err := sprite.WriteTo(raw); err != nil {
		return nil, err
	}

	return &Frame{
		Seed:   seed,
		PNG:    img.Bytes(),
		Sprite: raw.Bytes(),
	}, nil
}

// Play starts producing invaders.
func (s *Manager) Play() (State, error) {
	ctx, cancel := context.WithCancel(s.baseContext())
	if !s.transition(StatePlaying, []int{StateStopped}, cancel) {
		cancel()
		return s.State(), ErrNotStopped
	}

	go s.produce(ctx)

	return s.State(), nil
}

// Pause keeps the producer alive without broadcasting.
func (s *Manager) Pause() (State, error) {
	if !s.UpdateState(StatePaused, []int{StatePlaying}) {
		return s.State(), ErrNotPlaying
	}
	return s.State(), nil
}

// Resume undoes Pause.
func (s *Manager) Resume() (State, error) {
	if !s.UpdateState(StatePlaying, []int{StatePaused}) {
		return s.State(), ErrNotPaused
	}
	return s.State(), nil
}

// Stop terminates the producer.
func (s *Manager) Stop() (State, error) {
	if !s.UpdateState(StateStopped, []int{StatePlaying, StatePaused}) {
		return s.State(), ErrStopped
	}
	return s.State(), nil
}

func (s *Manager) produce(ctx context.Context) {
	defer s.logger.Println("invader stream: producer quitting")

	t := time.NewTicker(s.State().Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		if s.State().State != StatePlaying {
			continue
		}

		s.stateMutex.Lock()
		seed := s.state.Seed
		s.stateMutex.Unlock()

		frame, err := s.Render(ctx, seed)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Println("invader stream: render failed:", err)
			continue
		}

		s.stateMutex.Lock()
		s.state.Seed++
		s.state.Produced++
		s.stateMutex.Unlock()

		s.Broadcast(SubscriptionImage, append([]byte{PacketImage}, frame.PNG...))
		s.Broadcast(SubscriptionSprite, append([]byte{PacketSprite}, frame.Sprite...))
	}
}
