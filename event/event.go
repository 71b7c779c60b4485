// Package event defines the notifications a session publishes and the sink
// that buffers them for the host.
package event

import (
	"encoding/json"
	"fmt"
)

// Event is one notification addressed to the host.
// SessionID is zero for coordinator-level notifications.
type Event struct {
	SessionID int64
	Payload   Payload
}

// Payload is the closed set of event bodies.
type Payload interface {
	Name() string
	payload()
}

type Prepared struct {
	Duration int64 `json:"duration" jsonschema:"description=Media duration in milliseconds. Zero when unknown."`
	Width    int   `json:"width" jsonschema:"description=Video width in pixels."`
	Height   int   `json:"height" jsonschema:"description=Video height in pixels."`
}

type Completed struct{}

type BufferingUpdate struct {
	Percent int `json:"percent" jsonschema:"minimum=0,maximum=100"`
}

type SeekComplete struct {
	Position int64 `json:"position" jsonschema:"description=Position in milliseconds after the seek."`
}

type Error struct {
	Code  int `json:"code" jsonschema:"description=Engine error code."`
	Extra int `json:"extra" jsonschema:"description=Engine specific detail code."`
}

type VideoSizeChanged struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	SarNum   int `json:"sarNum"`
	SarDen   int `json:"sarDen"`
	Rotation int `json:"rotation" jsonschema:"description=Clockwise rotation in degrees or -1 when unknown."`
}

type StateChanged struct {
	NewState int    `json:"newState" jsonschema:"minimum=0,maximum=9"`
	State    string `json:"name"`
}

// AudioFocusLost is published by the coordinator when the platform revokes focus.
type AudioFocusLost struct{}

func (Prepared) Name() string         { return "prepared" }
func (Completed) Name() string        { return "completed" }
func (BufferingUpdate) Name() string  { return "bufferingUpdate" }
func (SeekComplete) Name() string     { return "seekComplete" }
func (Error) Name() string            { return "error" }
func (VideoSizeChanged) Name() string { return "videoSizeChanged" }
func (StateChanged) Name() string     { return "stateChanged" }
func (AudioFocusLost) Name() string   { return "audioFocusLost" }

func (Prepared) payload()         {}
func (Completed) payload()        {}
func (BufferingUpdate) payload()  {}
func (SeekComplete) payload()     {}
func (Error) payload()            {}
func (VideoSizeChanged) payload() {}
func (StateChanged) payload()     {}
func (AudioFocusLost) payload()   {}

// Payloads lists a zero value of every payload type.
func Payloads() []Payload {
	return []Payload{
		Prepared{},
		Completed{},
		BufferingUpdate{},
		SeekComplete{},
		Error{},
		VideoSizeChanged{},
		StateChanged{},
		AudioFocusLost{},
	}
}

// wire is the host-facing JSON envelope.
type wire struct {
	Event string  `json:"event"`
	ID    int64   `json:"id"`
	Data  Payload `json:"data"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("event for session %d has no payload", e.SessionID)
	}
	return json.Marshal(wire{Event: e.Payload.Name(), ID: e.SessionID, Data: e.Payload})
}

func (e Event) String() string {
	switch p := e.Payload.(type) {
	case Prepared:
		return fmt.Sprintf("#%d prepared duration=%dms %dx%d", e.SessionID, p.Duration, p.Width, p.Height)
	case Completed:
		return fmt.Sprintf("#%d completed", e.SessionID)
	case BufferingUpdate:
		return fmt.Sprintf("#%d buffering %d%%", e.SessionID, p.Percent)
	case SeekComplete:
		return fmt.Sprintf("#%d seek complete at %dms", e.SessionID, p.Position)
	case Error:
		return fmt.Sprintf("#%d error code=%d extra=%d", e.SessionID, p.Code, p.Extra)
	case VideoSizeChanged:
		return fmt.Sprintf("#%d video %dx%d sar=%d:%d rotation=%d", e.SessionID, p.Width, p.Height, p.SarNum, p.SarDen, p.Rotation)
	case StateChanged:
		return fmt.Sprintf("#%d state %s (%d)", e.SessionID, p.State, p.NewState)
	case AudioFocusLost:
		return "audio focus lost"
	default:
		return fmt.Sprintf("#%d unknown event", e.SessionID)
	}
}
