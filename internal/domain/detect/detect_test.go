package detect_test

import (
	"context"
	"testing"

	"github.com/blazevision/engine/internal/domain/detect"
	"github.com/blazevision/engine/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSyntheticDetector(t *testing.T) {
	ctx := context.Background()
	cfg := model.AnalysisConfig{
		Sport:        model.SportFootball,
		TrackPlayers: true,
		TrackBall:    true,
	}.Normalized()

	Convey("Given a synthetic detector for a football job", t, func() {
		det := detect.NewSynthetic("synthetic://clip?duration=10", cfg)

		Convey("When detecting a frame", func() {
			rec, err := det.Detect(ctx, detect.Request{Index: 3, Timestamp: 0.1, Config: cfg})
			So(err, ShouldBeNil)

			Convey("Then the field is always detected", func() {
				So(rec.Field.Sport, ShouldEqual, model.SportFootball)
				So(rec.Field.Surface, ShouldEqual, "grass")
				So(len(rec.Field.Landmarks), ShouldBeGreaterThan, 0)
			})

			Convey("And players carry confidences in [0,1]", func() {
				So(len(rec.Players), ShouldBeGreaterThan, 0)
				for _, p := range rec.Players {
					So(p.Confidence, ShouldBeBetweenOrEqual, 0, 1)
					So(p.Position.X, ShouldBeBetweenOrEqual, 0, 1)
					So(p.Position.Y, ShouldBeBetweenOrEqual, 0, 1)
				}
			})

			Convey("And the timestamp is echoed back", func() {
				So(rec.Timestamp, ShouldEqual, 0.1)
			})
		})

		Convey("When detecting the same frame twice", func() {
			a, errA := det.Detect(ctx, detect.Request{Index: 7, Timestamp: 0.23, Config: cfg})
			b, errB := det.Detect(ctx, detect.Request{Index: 7, Timestamp: 0.23, Config: cfg})

			Convey("Then the output is identical", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a, ShouldResemble, b)
			})
		})

		Convey("When the config disables player tracking", func() {
			quiet := cfg
			quiet.TrackPlayers = false
			rec, err := det.Detect(ctx, detect.Request{Index: 0, Timestamp: 0, Config: quiet})

			Convey("Then no players are returned but the field remains", func() {
				So(err, ShouldBeNil)
				So(rec.Players, ShouldBeEmpty)
				So(len(rec.Field.Landmarks), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When max players caps the detections", func() {
			capped := cfg
			capped.MaxPlayers = 5
			rec, err := det.Detect(ctx, detect.Request{Index: 0, Timestamp: 0, Config: capped})

			Convey("Then the cap is honored", func() {
				So(err, ShouldBeNil)
				So(len(rec.Players), ShouldBeLessThanOrEqualTo, 5)
			})
		})
	})

	Convey("Given a detector with full ball occlusion", t, func() {
		det := detect.NewSynthetic("synthetic://clip?duration=10", cfg,
			detect.WithBallPresence(0),
		)

		Convey("When detecting frames", func() {
			rec, err := det.Detect(ctx, detect.Request{Index: 0, Timestamp: 0, Config: cfg})

			Convey("Then a missing ball is not an error", func() {
				So(err, ShouldBeNil)
				So(rec.Ball, ShouldBeNil)
			})
		})
	})

	Convey("Given detectors seeded from different video references", t, func() {
		a := detect.NewSynthetic("synthetic://clip-a?duration=10", cfg)
		b := detect.NewSynthetic("synthetic://clip-b?duration=10", cfg)

		Convey("When detecting the same frame index", func() {
			recA, _ := a.Detect(ctx, detect.Request{Index: 0, Timestamp: 0, Config: cfg})
			recB, _ := b.Detect(ctx, detect.Request{Index: 0, Timestamp: 0, Config: cfg})

			Convey("Then the detection streams differ", func() {
				So(recA, ShouldNotResemble, recB)
			})
		})
	})

	Convey("Given a cancelled context", t, func() {
		det := detect.NewSynthetic("synthetic://clip?duration=10", cfg)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		Convey("When detecting", func() {
			_, err := det.Detect(cancelled, detect.Request{Index: 0, Timestamp: 0, Config: cfg})

			Convey("Then the context error surfaces", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestSyntheticFactory(t *testing.T) {
	Convey("Given the synthetic factory", t, func() {
		factory := detect.SyntheticFactory{}

		Convey("When building a detector for a job", func() {
			det := factory.ForJob("synthetic://clip?duration=5", model.AnalysisConfig{Sport: model.SportBaseball})

			Convey("Then a detector is returned", func() {
				So(det, ShouldNotBeNil)
			})
		})
	})
}
