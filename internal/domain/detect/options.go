package detect

// Option applies a configuration option to the Synthetic detector.
type Option func(*Synthetic)

// WithSeed overrides the seed derived from the video reference. Useful for
// reproducing a specific detection stream.
func WithSeed(seed int64) Option {
	return func(s *Synthetic) {
		s.seed = seed
	}
}

// WithBallPresence overrides the fraction of frames in which the ball is
// visible.
func WithBallPresence(fraction float64) Option {
	return func(s *Synthetic) {
		if fraction >= 0 && fraction <= 1 {
			s.profile.ballPresence = fraction
		}
	}
}
