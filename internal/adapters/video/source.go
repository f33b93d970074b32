// Package video abstracts the external video-decoding collaborator.
//
// The engine never touches video bytes itself; it only needs the clip's
// shape (duration, native fps, resolution) to drive frame sampling. Real
// decoders implement Source; the synthetic source ships for development and
// tests.
package video

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Clip describes a probed video.
type Clip struct {
	// Duration in seconds.
	Duration float64

	// FPS is the native frame rate.
	FPS float64

	// Width and Height in pixels.
	Width  int
	Height int
}

// Source probes a video reference for its clip metrics.
type Source interface {
	// Probe resolves the reference. An unreadable or malformed reference
	// yields an error wrapping ErrUnreadable.
	Probe(ctx context.Context, ref string) (Clip, error)
}

// Default clip values used when the reference omits a parameter.
const (
	defaultFPS    = 30.0
	defaultWidth  = 1920
	defaultHeight = 1080
)

// SyntheticSource resolves synthetic:// references of the form
//
//	synthetic://clip?duration=10&fps=30&width=1920&height=1080
//
// Duration is required; the rest default to a 1080p30 clip.
type SyntheticSource struct{}

// NewSyntheticSource creates a synthetic source.
func NewSyntheticSource() *SyntheticSource {
	return &SyntheticSource{}
}

// Probe parses the reference into clip metrics.
func (s *SyntheticSource) Probe(ctx context.Context, ref string) (Clip, error) {
	select {
	case <-ctx.Done():
		return Clip{}, fmt.Errorf("probe cancelled: %w", ctx.Err())
	default:
	}

	u, err := url.Parse(ref)
	if err != nil {
		return Clip{}, fmt.Errorf("%w: %s", ErrUnreadable, ref)
	}
	if u.Scheme != "synthetic" {
		return Clip{}, fmt.Errorf("%w: unsupported scheme %q", ErrUnreadable, u.Scheme)
	}

	q := u.Query()
	duration, err := strconv.ParseFloat(q.Get("duration"), 64)
	if err != nil || duration <= 0 {
		return Clip{}, fmt.Errorf("%w: missing or invalid duration in %s", ErrUnreadable, ref)
	}

	clip := Clip{
		Duration: duration,
		FPS:      defaultFPS,
		Width:    defaultWidth,
		Height:   defaultHeight,
	}
	if v := q.Get("fps"); v != "" {
		fps, err := strconv.ParseFloat(v, 64)
		if err != nil || fps <= 0 {
			return Clip{}, fmt.Errorf("%w: invalid fps in %s", ErrUnreadable, ref)
		}
		clip.FPS = fps
	}
	if v := q.Get("width"); v != "" {
		if clip.Width, err = strconv.Atoi(v); err != nil || clip.Width <= 0 {
			return Clip{}, fmt.Errorf("%w: invalid width in %s", ErrUnreadable, ref)
		}
	}
	if v := q.Get("height"); v != "" {
		if clip.Height, err = strconv.Atoi(v); err != nil || clip.Height <= 0 {
			return Clip{}, fmt.Errorf("%w: invalid height in %s", ErrUnreadable, ref)
		}
	}
	return clip, nil
}
