// Package replay records the broadcast frame stream to a line-oriented text
// log for offline protocol analysis.
//
// Log format:
//
//   - Blank lines and lines starting with '#' are ignored.
//   - Line "START" marks the time origin.
//   - Data lines are: <t_ns>,<hex>
//     where t_ns is nanoseconds since START (monotonic) and hex is the raw
//     framed GDL90 bytes.
package replay

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"
)

type Writer struct {
	f      *os.File
	w      *bufio.Writer
	start  time.Time
	closed bool
}

func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(f, 64*1024)
	if _, err := bw.WriteString("START\n"); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, w: bw, start: time.Now()}, nil
}

func (ww *Writer) WriteFrame(now time.Time, frame []byte) error {
	if ww.closed {
		return errors.New("replay writer is closed")
	}
	if len(frame) == 0 {
		return errors.New("frame is empty")
	}

	// Use monotonic component of time when available.
	d := now.Sub(ww.start)
	if d < 0 {
		d = 0
	}
	if _, err := fmt.Fprintf(ww.w, "%d,%s\n", d.Nanoseconds(), hex.EncodeToString(frame)); err != nil {
		return err
	}
	return nil
}

func (ww *Writer) Flush() error {
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		_ = ww.f.Close()
		return err
	}
	return ww.f.Close()
}
