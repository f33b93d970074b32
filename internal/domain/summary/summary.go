// Package summary derives aggregate metrics, key moments, and insights from
// a completed frame sequence.
//
// Extraction is deterministic: identical frame input always yields identical
// output, with no dependence on wall clock or random state.
package summary

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/blazevision/engine/internal/domain/model"
)

// Extractor computes an AnalysisSummary from a frame sequence.
type Extractor struct {
	rules ruleSet
}

// New creates an extractor with the rule set for the given sport.
func New(sport model.Sport) *Extractor {
	return &Extractor{
		rules: rulesFor(sport),
	}
}

// Extract consumes the full ordered frame sequence and derives the summary.
func (e *Extractor) Extract(frames []model.FrameRecord, cfg model.AnalysisConfig) model.AnalysisSummary {
	var s model.AnalysisSummary

	playerCounts := make([]float64, 0, len(frames))
	var velocities []float64
	var ballSpeeds []float64
	ballFrames := 0

	for i := range frames {
		f := &frames[i]
		playerCounts = append(playerCounts, float64(len(f.Players)))
		for j := range f.Players {
			if v := f.Players[j].Velocity; v != nil {
				velocities = append(velocities, v.Magnitude)
			}
		}
		if f.Ball != nil {
			ballFrames++
			if f.Ball.Velocity != nil {
				ballSpeeds = append(ballSpeeds, f.Ball.Velocity.Magnitude)
			}
		}
	}

	if len(playerCounts) > 0 {
		s.PlayerCountEstimate = int(math.Round(stat.Mean(playerCounts, nil)))
	}
	if len(velocities) > 0 {
		s.AvgVelocity = stat.Mean(velocities, nil)
		s.MaxVelocity = floats.Max(velocities)
	}
	if cfg.TrackBall && len(ballSpeeds) > 0 {
		mean := stat.Mean(ballSpeeds, nil)
		s.BallVelocity = &mean
	}

	s.KeyMoments = e.keyMoments(frames)
	s.Insights = insights(s, cfg, ballFrames, len(frames))
	return s
}

// keyMoments scans consecutive frame pairs with each rule in order. Moments
// are appended in scan order, so equal timestamps keep rule evaluation order;
// the stable sort preserves that tiebreak.
func (e *Extractor) keyMoments(frames []model.FrameRecord) []model.KeyMoment {
	moments := []model.KeyMoment{}
	for i := 1; i < len(frames); i++ {
		prev, cur := &frames[i-1], &frames[i]
		for _, r := range e.rules.rules {
			moments = append(moments, r.evaluate(prev, cur)...)
		}
	}
	sort.SliceStable(moments, func(i, j int) bool {
		return moments[i].Timestamp < moments[j].Timestamp
	})
	return moments
}

// insights renders human-readable statements from values already present in
// the summary and the frame counts. No hidden computation beyond formatting.
func insights(s model.AnalysisSummary, cfg model.AnalysisConfig, ballFrames, totalFrames int) []string {
	out := []string{}
	if cfg.TrackPlayers {
		out = append(out, fmt.Sprintf("tracked an average of %d players per frame", s.PlayerCountEstimate))
		if s.MaxVelocity > 0 {
			out = append(out, fmt.Sprintf("average player speed %.2f field-lengths/s, peaking at %.2f", s.AvgVelocity, s.MaxVelocity))
		}
	}
	if cfg.TrackBall && totalFrames > 0 {
		coverage := float64(ballFrames) / float64(totalFrames) * 100
		out = append(out, fmt.Sprintf("ball detected in %.0f%% of frames", coverage))
		if s.BallVelocity != nil {
			out = append(out, fmt.Sprintf("average ball speed %.2f field-lengths/s", *s.BallVelocity))
		}
	}
	if len(s.KeyMoments) > 0 {
		out = append(out, fmt.Sprintf("%d key moments identified", len(s.KeyMoments)))
	}
	return out
}

// Quality scores a frame sequence in [0,1] from detection coverage and mean
// confidence. Empty frames drag the score down.
func Quality(frames []model.FrameRecord) float64 {
	if len(frames) == 0 {
		return 0
	}
	nonEmpty := 0
	var confidences []float64
	for i := range frames {
		f := &frames[i]
		if !f.Empty() {
			nonEmpty++
		}
		for j := range f.Players {
			confidences = append(confidences, f.Players[j].Confidence)
		}
		if f.Ball != nil {
			confidences = append(confidences, f.Ball.Confidence)
		}
	}
	coverage := float64(nonEmpty) / float64(len(frames))
	if len(confidences) == 0 {
		return coverage
	}
	return coverage * stat.Mean(confidences, nil)
}
