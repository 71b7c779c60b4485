package util

import (
	"testing"

	"github.com/playcore/playcore/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "session", "sessions"), ShouldEqual, "1 session")
		So(Quantify(2, "session", "sessions"), ShouldEqual, "2 sessions")
		So(Quantify(0, "session", "sessions"), ShouldEqual, "0 sessions")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("history file"), ShouldEqual, "History file")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestTruncate(t *testing.T) {
	Convey("Short strings are never cut", t, func() {
		So(Truncate("00:00:01"), ShouldEqual, "00:00:01")
	})
}

func TestDelete(t *testing.T) {
	Convey("Given files on the filesystem", t, func() {
		fs := filesystem.API()
		So(fs.MkdirAll("/data/sockets", 0o755), ShouldBeNil)
		f, err := fs.Create("/data/sockets/mpv.sock")
		So(err, ShouldBeNil)
		So(f.Close(), ShouldBeNil)
		f, err = fs.Create("/data/history.json")
		So(err, ShouldBeNil)
		So(f.Close(), ShouldBeNil)

		Convey("A file is removed", func() {
			So(Delete("/data/history.json"), ShouldBeNil)
			_, err := fs.Stat("/data/history.json")
			So(err, ShouldNotBeNil)
		})

		Convey("A directory is removed with its contents", func() {
			So(Delete("/data/sockets"), ShouldBeNil)
			_, err := fs.Stat("/data/sockets/mpv.sock")
			So(err, ShouldNotBeNil)
		})

		Convey("A missing path is an error", func() {
			So(Delete("/data/missing"), ShouldNotBeNil)
		})
	})
}
