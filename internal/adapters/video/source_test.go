package video_test

import (
	"context"
	"errors"
	"testing"

	"github.com/blazevision/engine/internal/adapters/video"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSyntheticSource(t *testing.T) {
	ctx := context.Background()

	Convey("Given a synthetic video source", t, func() {
		src := video.NewSyntheticSource()

		Convey("When probing a fully specified reference", func() {
			clip, err := src.Probe(ctx, "synthetic://clip?duration=10&fps=30&width=1280&height=720")

			Convey("Then all clip metrics are parsed", func() {
				So(err, ShouldBeNil)
				So(clip.Duration, ShouldEqual, 10.0)
				So(clip.FPS, ShouldEqual, 30.0)
				So(clip.Width, ShouldEqual, 1280)
				So(clip.Height, ShouldEqual, 720)
			})
		})

		Convey("When probing a reference with only a duration", func() {
			clip, err := src.Probe(ctx, "synthetic://clip?duration=4.5")

			Convey("Then the rest defaults to 1080p30", func() {
				So(err, ShouldBeNil)
				So(clip.Duration, ShouldEqual, 4.5)
				So(clip.FPS, ShouldEqual, 30.0)
				So(clip.Width, ShouldEqual, 1920)
				So(clip.Height, ShouldEqual, 1080)
			})
		})

		Convey("When the reference has no duration", func() {
			_, err := src.Probe(ctx, "synthetic://clip")

			Convey("Then it is unreadable", func() {
				So(errors.Is(err, video.ErrUnreadable), ShouldBeTrue)
			})
		})

		Convey("When the scheme is not synthetic", func() {
			_, err := src.Probe(ctx, "file:///tmp/clip.mp4")

			Convey("Then it is unreadable", func() {
				So(errors.Is(err, video.ErrUnreadable), ShouldBeTrue)
			})
		})

		Convey("When a numeric parameter is malformed", func() {
			_, err := src.Probe(ctx, "synthetic://clip?duration=10&fps=fast")

			Convey("Then it is unreadable", func() {
				So(errors.Is(err, video.ErrUnreadable), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := src.Probe(cancelled, "synthetic://clip?duration=10")

			Convey("Then the probe reports cancellation", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
