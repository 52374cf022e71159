//go:build linux

package statusled

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// openLine claims the given line offset as an output via the Linux GPIO
// character device (libgpiod).
func openLine(chip string, line int) (lineDriver, error) {
	if line < 0 {
		return nil, fmt.Errorf("invalid gpio line %d", line)
	}
	chip = strings.TrimSpace(chip)
	if chip == "" {
		chip = "gpiochip0"
	}
	if !strings.HasPrefix(chip, "/dev/") {
		chip = filepath.Join("/dev", chip)
	}

	l, err := gpiocdev.RequestLine(chip, line,
		gpiocdev.AsOutput(0), gpiocdev.WithConsumer("gdl90-bridge-led"))
	if err != nil {
		return nil, err
	}
	return l, nil
}
