//go:build !linux

package statusled

import "fmt"

func openLine(chip string, line int) (lineDriver, error) {
	return nil, fmt.Errorf("gpio unsupported on this platform")
}
