package model

// BoundingBox is an axis-aligned box in pixel coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Position is a point in normalized field coordinates. Z is only meaningful
// for sports with a vertical ball trajectory and is zero otherwise.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Velocity is a 2D vector plus its precomputed magnitude.
type Velocity struct {
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	Magnitude float64 `json:"magnitude"`
}

// PlayerDetection is one tracked player in a frame. TrackID is stable across
// consecutive frames where continuity was inferred.
type PlayerDetection struct {
	TrackID    int         `json:"track_id"`
	Box        BoundingBox `json:"box"`
	Position   Position    `json:"position"`
	Team       string      `json:"team,omitempty"`
	Confidence float64     `json:"confidence"`
	Velocity   *Velocity   `json:"velocity,omitempty"`
}

// TrajectoryPoint is one sample of the ball's recent path.
type TrajectoryPoint struct {
	Timestamp float64  `json:"timestamp"`
	Position  Position `json:"position"`
}

// BallDetection is the ball in a frame. A frame without a ball simply omits
// the detection; occlusion is not an error.
type BallDetection struct {
	Box        BoundingBox       `json:"box"`
	Position   Position          `json:"position"`
	Velocity   *Velocity         `json:"velocity,omitempty"`
	Confidence float64           `json:"confidence"`
	Trajectory []TrajectoryPoint `json:"trajectory,omitempty"`
}

// FieldLandmark is a named reference point on the playing surface.
type FieldLandmark struct {
	Name       string   `json:"name"`
	Position   Position `json:"position"`
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
}

// FieldDetection describes the playing surface in a frame. It is always
// produced, even when player and ball tracking are disabled.
type FieldDetection struct {
	Bounds    BoundingBox     `json:"bounds"`
	Landmarks []FieldLandmark `json:"landmarks"`
	Surface   string          `json:"surface"`
	Sport     Sport           `json:"sport"`
}

// FrameRecord is the structured detection output for one sampled timestamp.
// Records within a job are strictly timestamp-ascending and owned exclusively
// by the job that produced them.
type FrameRecord struct {
	Timestamp float64           `json:"timestamp"`
	Players   []PlayerDetection `json:"players"`
	Ball      *BallDetection    `json:"ball,omitempty"`
	Field     FieldDetection    `json:"field"`
}

// Empty reports whether the frame carries no player or ball detections.
// Empty frames are how localized detector failures are recorded.
func (f FrameRecord) Empty() bool {
	return len(f.Players) == 0 && f.Ball == nil
}

// KeyMoment is a derived, timestamped event of interest.
type KeyMoment struct {
	Timestamp    float64 `json:"timestamp"`
	Type         string  `json:"type"`
	Description  string  `json:"description"`
	Confidence   float64 `json:"confidence"`
	Participants []int   `json:"participants,omitempty"`
}

// VideoMetrics describes the decoded video's shape as reported by the
// decoding collaborator and capped by the analysis config.
type VideoMetrics struct {
	FrameCount   int     `json:"frame_count"`
	FPS          float64 `json:"fps"`
	Duration     float64 `json:"duration"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	QualityScore float64 `json:"quality_score"`
}

// AnalysisSummary aggregates a completed job's frame sequence.
type AnalysisSummary struct {
	PlayerCountEstimate int      `json:"player_count_estimate"`
	AvgVelocity         float64  `json:"avg_velocity"`
	MaxVelocity         float64  `json:"max_velocity"`
	// BallVelocity is nil when the ball was untracked or never detected.
	BallVelocity *float64    `json:"ball_velocity,omitempty"`
	KeyMoments   []KeyMoment `json:"key_moments"`
	Insights     []string    `json:"insights"`
}

// AnalysisResult is the hand-off value owned by a completed job.
type AnalysisResult struct {
	Frames           []FrameRecord   `json:"frames"`
	Metrics          VideoMetrics    `json:"metrics"`
	Summary          AnalysisSummary `json:"summary"`
	Status           JobStatus       `json:"status"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
}
