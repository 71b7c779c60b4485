package source

import (
	"context"
	"testing"

	"github.com/playcore/playcore/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	Convey("Given a resolver with an asset root", t, func() {
		So(filesystem.API().WriteFile("/assets/demo/intro.mp4", []byte("x"), 0644), ShouldBeNil)
		So(filesystem.API().WriteFile("/media/clip.mkv", []byte("x"), 0644), ShouldBeNil)
		r := NewResolver("/assets")

		Convey("http(s) streams pass through", func() {
			target, err := r.Resolve(ctx, "https://example.com/live.m3u8")
			So(err, ShouldBeNil)
			So(target, ShouldEqual, "https://example.com/live.m3u8")
		})

		Convey("Bare paths and file URIs resolve to existing files", func() {
			target, err := r.Resolve(ctx, "/media/../media/clip.mkv")
			So(err, ShouldBeNil)
			So(target, ShouldEqual, "/media/clip.mkv")

			target, err = r.Resolve(ctx, "file:///media/clip.mkv")
			So(err, ShouldBeNil)
			So(target, ShouldEqual, "/media/clip.mkv")
		})

		Convey("Missing files are rejected", func() {
			_, err := r.Resolve(ctx, "/media/missing.mkv")
			So(err, ShouldNotBeNil)
		})

		Convey("Assets resolve under the root", func() {
			target, err := r.Resolve(ctx, "asset://demo/intro.mp4")
			So(err, ShouldBeNil)
			So(target, ShouldEqual, "/assets/demo/intro.mp4")
		})

		Convey("Assets cannot escape the root", func() {
			_, err := r.Resolve(ctx, "asset://demo/../../media/clip.mkv")
			So(err, ShouldNotBeNil)
		})

		Convey("Unsafe sources are rejected", func() {
			for _, uri := range []string{"", "  ", "--script=evil.lua", "clip\n.mkv", "ftp://host/file", "rtmp://x/y"} {
				_, err := r.Resolve(ctx, uri)
				So(err, ShouldNotBeNil)
			}
		})
	})

	Convey("Assets need a root", t, func() {
		_, err := NewResolver("").Resolve(ctx, "asset://demo/intro.mp4")
		So(err, ShouldNotBeNil)
	})
}
