package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/blazevision/engine/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAnalysisConfigValidate(t *testing.T) {
	Convey("Given an analysis config", t, func() {
		Convey("When the sport is recognized", func() {
			cfg := model.AnalysisConfig{Sport: model.SportBaseball, TrackPlayers: true}

			Convey("Then validation passes", func() {
				So(cfg.Validate(), ShouldBeNil)
			})
		})

		Convey("When the sport is unknown", func() {
			cfg := model.AnalysisConfig{Sport: "cricket"}

			Convey("Then validation fails with ErrInvalidConfig", func() {
				err := cfg.Validate()
				So(err, ShouldNotBeNil)
				So(errors.Is(err, model.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the frame rate is outside the accepted bounds", func() {
			low := model.AnalysisConfig{Sport: model.SportFootball, FrameRate: 10}
			high := model.AnalysisConfig{Sport: model.SportFootball, FrameRate: 500}

			Convey("Then validation fails both ways", func() {
				So(errors.Is(low.Validate(), model.ErrInvalidConfig), ShouldBeTrue)
				So(errors.Is(high.Validate(), model.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the failure threshold is out of range", func() {
			cfg := model.AnalysisConfig{Sport: model.SportOther, FailureThreshold: 1.5}

			Convey("Then validation fails", func() {
				So(errors.Is(cfg.Validate(), model.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When normalizing a zero-valued config", func() {
			norm := model.AnalysisConfig{Sport: model.SportBasketball}.Normalized()

			Convey("Then defaults fill the tunables", func() {
				So(norm.FrameRate, ShouldEqual, model.DefaultFrameRate)
				So(norm.MaxPlayers, ShouldEqual, model.DefaultMaxPlayers)
				So(norm.FailureThreshold, ShouldEqual, model.DefaultFailureThreshold)
				So(norm.MaxDuration, ShouldEqual, model.DefaultMaxDuration)
			})
		})
	})
}

func TestJobLifecycle(t *testing.T) {
	cfg := model.AnalysisConfig{Sport: model.SportBaseball, TrackPlayers: true}

	Convey("Given a newly created job", t, func() {
		job := model.NewJob("synthetic://clip?duration=10", cfg)

		Convey("Then it starts queued with a fresh id", func() {
			So(job.ID(), ShouldNotBeEmpty)
			So(job.Status(), ShouldEqual, model.StatusQueued)
			So(job.Snapshot().Progress, ShouldEqual, 0)
		})

		Convey("When it moves through the happy path", func() {
			So(job.Transition(model.StatusProcessing, nil, nil), ShouldBeNil)
			result := &model.AnalysisResult{Status: model.StatusCompleted}
			So(job.Transition(model.StatusCompleted, result, nil), ShouldBeNil)

			Convey("Then the result is present and progress forced to 100", func() {
				snap := job.Snapshot()
				So(snap.Status, ShouldEqual, model.StatusCompleted)
				So(snap.Progress, ShouldEqual, 100)
				So(snap.Result, ShouldNotBeNil)
				So(snap.Error, ShouldBeNil)
			})

			Convey("And further transitions are rejected loudly", func() {
				err := job.Transition(model.StatusProcessing, nil, nil)
				So(errors.Is(err, model.ErrIllegalTransition), ShouldBeTrue)
			})
		})

		Convey("When it fails", func() {
			So(job.Transition(model.StatusProcessing, nil, nil), ShouldBeNil)
			info := &model.ErrorInfo{Kind: model.ErrKindDetector, Message: "too many failures"}
			So(job.Transition(model.StatusFailed, nil, info), ShouldBeNil)

			Convey("Then the error is present and the result absent", func() {
				snap := job.Snapshot()
				So(snap.Status, ShouldEqual, model.StatusFailed)
				So(snap.Error, ShouldNotBeNil)
				So(snap.Error.Kind, ShouldEqual, model.ErrKindDetector)
				So(snap.Result, ShouldBeNil)
			})
		})

		Convey("When it is cancelled while queued", func() {
			So(job.Transition(model.StatusCancelled, nil, nil), ShouldBeNil)

			Convey("Then the state is terminal with no result", func() {
				So(job.Status(), ShouldEqual, model.StatusCancelled)
				So(job.Status().Terminal(), ShouldBeTrue)
				So(job.Snapshot().Result, ShouldBeNil)
			})
		})

		Convey("When an illegal transition is attempted from queued", func() {
			err := job.Transition(model.StatusCompleted, nil, nil)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, model.ErrIllegalTransition), ShouldBeTrue)
				So(job.Status(), ShouldEqual, model.StatusQueued)
			})
		})
	})
}

func TestJobProgress(t *testing.T) {
	cfg := model.AnalysisConfig{Sport: model.SportFootball, TrackPlayers: true}

	Convey("Given a processing job", t, func() {
		job := model.NewJob("synthetic://clip?duration=5", cfg)
		So(job.Transition(model.StatusProcessing, nil, nil), ShouldBeNil)

		Convey("When progress updates arrive out of order", func() {
			job.SetProgress(10)
			job.SetProgress(40)
			job.SetProgress(25)

			Convey("Then progress never moves backwards", func() {
				So(job.Snapshot().Progress, ShouldEqual, 40)
			})
		})

		Convey("When progress exceeds 100", func() {
			job.SetProgress(250)

			Convey("Then it is clamped", func() {
				So(job.Snapshot().Progress, ShouldEqual, 100)
			})
		})

		Convey("When the job is terminal", func() {
			So(job.Transition(model.StatusCancelled, nil, nil), ShouldBeNil)
			before := job.Snapshot().Progress
			job.SetProgress(99)

			Convey("Then late callbacks are ignored", func() {
				So(job.Snapshot().Progress, ShouldEqual, before)
			})
		})
	})
}

func TestJobSnapshotIdempotence(t *testing.T) {
	Convey("Given a job with no intervening mutation", t, func() {
		job := model.NewJob("synthetic://clip?duration=5", model.AnalysisConfig{Sport: model.SportOther})

		Convey("When snapshotting repeatedly", func() {
			a := job.Snapshot()
			time.Sleep(5 * time.Millisecond)
			b := job.Snapshot()

			Convey("Then the snapshots are identical", func() {
				So(a, ShouldResemble, b)
			})
		})
	})
}

func TestJobError(t *testing.T) {
	Convey("Given a classified job error", t, func() {
		err := model.NewJobError(model.ErrKindDecode, "bad container")

		Convey("When extracting the info", func() {
			info, ok := model.ErrorInfoFrom(err)

			Convey("Then kind and message round-trip", func() {
				So(ok, ShouldBeTrue)
				So(info.Kind, ShouldEqual, model.ErrKindDecode)
				So(info.Message, ShouldEqual, "bad container")
			})
		})

		Convey("When extracting from an unclassified error", func() {
			_, ok := model.ErrorInfoFrom(errors.New("boom"))

			Convey("Then nothing is found", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}
