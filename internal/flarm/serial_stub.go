//go:build !linux

package flarm

import (
	"fmt"
	"os"
)

func openSerial(path string, baud int) (*os.File, error) {
	return nil, fmt.Errorf("flarm serial not supported on this platform")
}
