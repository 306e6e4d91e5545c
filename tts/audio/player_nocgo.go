//go:build nocgo
// +build nocgo

package audio

import "context"

// Player is a stub for builds without CGO.
type Player struct{}

// NewPlayer returns a stub player.
func NewPlayer() *Player {
	return &Player{}
}

// Play always fails in nocgo builds.
func (p *Player) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	if err := validate(pcm, sampleRate); err != nil {
		return err
	}
	return ErrUnavailable
}
