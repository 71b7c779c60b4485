package style

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRenderers(t *testing.T) {
	Convey("Renderers keep the text", t, func() {
		So(Fg(Red)("boom"), ShouldContainSubstring, "boom")
		So(Bold("x"), ShouldContainSubstring, "x")
		So(Tag(Text, AccentColor)("tag"), ShouldContainSubstring, "tag")
		So(Box(BorderColor)("boxed"), ShouldContainSubstring, "boxed")
	})

	Convey("StateColor distinguishes terminal and active states", t, func() {
		So(StateColor("started"), ShouldEqual, SuccessColor)
		So(StateColor("error"), ShouldEqual, ErrorColor)
		So(StateColor("end"), ShouldEqual, FaintColor)
		So(StateColor("idle"), ShouldEqual, Sky)
	})
}
