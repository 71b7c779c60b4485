//go:build !linux

package platform

import "fmt"

func newScreenSaver() (Lock, error) {
	return nil, fmt.Errorf("screensaver inhibition is not supported on this platform")
}
