package service_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/podiumlabs/orator_service/internal/errors"
	"github.com/podiumlabs/orator_service/internal/service"
)

func TestObjectKeyFromURL(t *testing.T) {
	convey.Convey("Given audio references pointing into the speeches bucket", t, func() {
		convey.Convey("When the reference is a full public URL", func() {
			key, err := service.ObjectKeyFromURL(
				"https://storage.example.com/v1/object/public/speeches/user-1/recording.webm",
				"speeches",
			)

			convey.So(err, convey.ShouldBeNil)
			convey.So(key, convey.ShouldEqual, "user-1/recording.webm")
		})

		convey.Convey("When the key contains URL-encoded characters", func() {
			key, err := service.ObjectKeyFromURL(
				"https://storage.example.com/speeches/user%201/my%20talk.webm",
				"speeches",
			)

			convey.So(err, convey.ShouldBeNil)
			convey.So(key, convey.ShouldEqual, "user 1/my talk.webm")
		})

		convey.Convey("When the reference is a bare path rather than a URL", func() {
			key, err := service.ObjectKeyFromURL("/speeches/abc/take-2.webm", "speeches")

			convey.So(err, convey.ShouldBeNil)
			convey.So(key, convey.ShouldEqual, "abc/take-2.webm")
		})

		convey.Convey("When the bucket marker appears more than once", func() {
			key, err := service.ObjectKeyFromURL(
				"https://host/speeches/nested/speeches/file.webm",
				"speeches",
			)

			convey.So(err, convey.ShouldBeNil)
			convey.So(key, convey.ShouldEqual, "nested/speeches/file.webm")
		})

		convey.Convey("When the reference never mentions the bucket", func() {
			key, err := service.ObjectKeyFromURL("https://host/other/file.webm", "speeches")

			convey.So(key, convey.ShouldBeEmpty)
			convey.So(errors.Is(err, errors.ErrMalformedReference), convey.ShouldBeTrue)
		})

		convey.Convey("When the reference is empty", func() {
			_, err := service.ObjectKeyFromURL("", "speeches")

			convey.So(errors.Is(err, errors.ErrMalformedReference), convey.ShouldBeTrue)
		})

		convey.Convey("When the marker is present but the key is empty", func() {
			_, err := service.ObjectKeyFromURL("https://host/speeches/", "speeches")

			convey.So(errors.Is(err, errors.ErrMalformedReference), convey.ShouldBeTrue)
		})
	})
}
