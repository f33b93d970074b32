package summary

import (
	"fmt"
	"math"

	"github.com/blazevision/engine/internal/domain/model"
)

// Rule thresholds, in normalized field units per second.
const (
	sprintThreshold     = 0.35
	ballFlightThreshold = 0.6
	proximityThreshold  = 0.05
	momentConfidence    = 0.75
)

// rule emits key moments for one consecutive frame pair. Rules fire on
// threshold crossings, not levels, so a sustained condition yields a single
// moment.
type rule interface {
	evaluate(prev, cur *model.FrameRecord) []model.KeyMoment
}

// ruleSet is an ordered list of rules; evaluation order is the timestamp
// tiebreak for emitted moments.
type ruleSet struct {
	rules []rule
}

// rulesFor returns the sport-specific rule set. Rules differ only in the
// action tags they emit; the underlying signals are sport-agnostic.
func rulesFor(sport model.Sport) ruleSet {
	tags := tagsFor(sport)
	return ruleSet{rules: []rule{
		&ballFlightRule{tag: tags.ballFlight},
		&sprintRule{tag: tags.sprint},
		&convergenceRule{tag: tags.contest},
	}}
}

type momentTags struct {
	ballFlight string
	sprint     string
	contest    string
}

func tagsFor(sport model.Sport) momentTags {
	switch sport {
	case model.SportBaseball:
		return momentTags{ballFlight: "pitch", sprint: "steal_attempt", contest: "tag_attempt"}
	case model.SportFootball:
		return momentTags{ballFlight: "long_ball", sprint: "sprint", contest: "challenge"}
	case model.SportBasketball:
		return momentTags{ballFlight: "shot", sprint: "fast_break", contest: "contest"}
	default:
		return momentTags{ballFlight: "ball_flight", sprint: "sprint", contest: "scramble"}
	}
}

// ballFlightRule fires when ball speed crosses the flight threshold from
// below.
type ballFlightRule struct {
	tag string
}

func (r *ballFlightRule) evaluate(prev, cur *model.FrameRecord) []model.KeyMoment {
	if cur.Ball == nil || cur.Ball.Velocity == nil {
		return nil
	}
	prevSpeed := 0.0
	if prev.Ball != nil && prev.Ball.Velocity != nil {
		prevSpeed = prev.Ball.Velocity.Magnitude
	}
	speed := cur.Ball.Velocity.Magnitude
	if speed < ballFlightThreshold || prevSpeed >= ballFlightThreshold {
		return nil
	}
	return []model.KeyMoment{{
		Timestamp:    cur.Timestamp,
		Type:         r.tag,
		Description:  fmt.Sprintf("ball accelerated to %.2f field-lengths/s", speed),
		Confidence:   momentConfidence,
		Participants: nearestPlayers(cur, cur.Ball.Position, 1),
	}}
}

// sprintRule fires when a player's speed crosses the sprint threshold from
// below.
type sprintRule struct {
	tag string
}

func (r *sprintRule) evaluate(prev, cur *model.FrameRecord) []model.KeyMoment {
	prevSpeed := make(map[int]float64, len(prev.Players))
	for i := range prev.Players {
		if v := prev.Players[i].Velocity; v != nil {
			prevSpeed[prev.Players[i].TrackID] = v.Magnitude
		}
	}

	var moments []model.KeyMoment
	for i := range cur.Players {
		p := &cur.Players[i]
		if p.Velocity == nil || p.Velocity.Magnitude < sprintThreshold {
			continue
		}
		if prevSpeed[p.TrackID] >= sprintThreshold {
			continue
		}
		moments = append(moments, model.KeyMoment{
			Timestamp:    cur.Timestamp,
			Type:         r.tag,
			Description:  fmt.Sprintf("player %d accelerated to %.2f field-lengths/s", p.TrackID, p.Velocity.Magnitude),
			Confidence:   momentConfidence,
			Participants: []int{p.TrackID},
		})
	}
	return moments
}

// convergenceRule fires when the closest pair of opposing players moves
// inside the proximity threshold.
type convergenceRule struct {
	tag string
}

func (r *convergenceRule) evaluate(prev, cur *model.FrameRecord) []model.KeyMoment {
	prevDist, _, _ := closestOpponents(prev)
	dist, a, b := closestOpponents(cur)
	if dist >= proximityThreshold || prevDist < proximityThreshold {
		return nil
	}
	return []model.KeyMoment{{
		Timestamp:    cur.Timestamp,
		Type:         r.tag,
		Description:  fmt.Sprintf("players %d and %d converged within %.3f field-lengths", a, b, dist),
		Confidence:   momentConfidence,
		Participants: []int{a, b},
	}}
}

// closestOpponents returns the minimum distance between players of opposing
// teams and the pair's track ids. Returns +Inf when no opposing pair exists.
func closestOpponents(f *model.FrameRecord) (float64, int, int) {
	best := math.Inf(1)
	var ba, bb int
	for i := range f.Players {
		for j := i + 1; j < len(f.Players); j++ {
			if f.Players[i].Team == f.Players[j].Team {
				continue
			}
			d := distance(f.Players[i].Position, f.Players[j].Position)
			if d < best {
				best, ba, bb = d, f.Players[i].TrackID, f.Players[j].TrackID
			}
		}
	}
	return best, ba, bb
}

// nearestPlayers returns the track ids of the n players closest to pos.
func nearestPlayers(f *model.FrameRecord, pos model.Position, n int) []int {
	if len(f.Players) == 0 || n <= 0 {
		return nil
	}
	type cand struct {
		id   int
		dist float64
	}
	cands := make([]cand, 0, len(f.Players))
	for i := range f.Players {
		cands = append(cands, cand{f.Players[i].TrackID, distance(f.Players[i].Position, pos)})
	}
	// Selection by repeated minimum keeps ties in detector output order.
	var ids []int
	for len(ids) < n && len(cands) > 0 {
		minIdx := 0
		for i := 1; i < len(cands); i++ {
			if cands[i].dist < cands[minIdx].dist {
				minIdx = i
			}
		}
		ids = append(ids, cands[minIdx].id)
		cands = append(cands[:minIdx], cands[minIdx+1:]...)
	}
	return ids
}

func distance(a, b model.Position) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
