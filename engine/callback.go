package engine

// Callback is the closed set of notifications an engine reports.
type Callback interface {
	callback()
}

type Prepared struct{}

type Completed struct{}

type BufferingUpdate struct {
	Percent int
}

type SeekComplete struct {
	Position int64
}

type Error struct {
	What  int
	Extra int
}

type VideoSizeChanged struct {
	Width  int
	Height int
	SarNum int
	SarDen int
}

// Info carries auxiliary notifications. InfoRotationChanged reports the
// rotation in degrees in Extra.
type Info struct {
	What  int
	Extra int
}

const (
	InfoBufferingStart  = 701
	InfoBufferingEnd    = 702
	InfoRotationChanged = 10001
)

// Generic error codes reported in Error.What.
const (
	ErrorUnknown = 1
	ErrorIO      = -1004
	ErrorServer  = 100
)

func (Prepared) callback()         {}
func (Completed) callback()        {}
func (BufferingUpdate) callback()  {}
func (SeekComplete) callback()     {}
func (Error) callback()            {}
func (VideoSizeChanged) callback() {}
func (Info) callback()             {}
