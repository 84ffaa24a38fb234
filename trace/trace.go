// Package trace persists intercepted gesture input as a stream of tagged
// frames, a big-endian uint16 tag and length followed by a CBOR value. A
// recorded trace can be replayed through the classifier offline.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

const valueMaxLength = 1024 - 2 /* tag */ - 2 /* length */

var ErrMaxLengthExceeded = errors.New("length is larger than the maximum length")

type Tag uint16

const (
	TagButtonDown Tag = iota + 1
	TagButtonUp
	TagMotion
)

type ButtonDown struct {
	Button uint16 `cbor:"button"`
}

type ButtonUp struct {
	Button uint16 `cbor:"button"`
}

type Motion struct {
	DX int64 `cbor:"dx"`
	DY int64 `cbor:"dy"`
}

func tagFor(v any) (Tag, error) {
	switch v.(type) {
	case ButtonDown:
		return TagButtonDown, nil
	case ButtonUp:
		return TagButtonUp, nil
	case Motion:
		return TagMotion, nil
	}
	return 0, errors.New("unexpected type")
}

type frame struct {
	tag    Tag
	length uint16
	value  []byte
}

func writeUint16(w io.Writer, v uint16) error {
	_, err := w.Write([]byte{byte(v >> 8), byte(v)})
	return err
}

func readUint16(r io.Reader) (uint16, error) {
	buf := make([]byte, 2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

func writeFrame(w io.Writer, frm frame) error {
	if err := writeUint16(w, uint16(frm.tag)); err != nil {
		return fmt.Errorf("failed to write tag: %w", err)
	}
	if err := writeUint16(w, frm.length); err != nil {
		return fmt.Errorf("failed to write length: %w", err)
	}
	if _, err := w.Write(frm.value[:frm.length]); err != nil {
		return fmt.Errorf("failed to write value: %w", err)
	}
	return nil
}

func readFrame(r io.Reader) (frame, error) {
	tag, err := readUint16(r)
	if err == io.EOF {
		// Clean end of trace.
		return frame{}, io.EOF
	}
	if err != nil {
		return frame{}, fmt.Errorf("failed to read tag: %w", err)
	}

	length, err := readUint16(r)
	if err != nil {
		return frame{}, fmt.Errorf("failed to read length: %w", err)
	}
	if length > valueMaxLength {
		return frame{}, ErrMaxLengthExceeded
	}

	value := make([]byte, length)
	if _, err := io.ReadFull(r, value); err != nil {
		return frame{}, fmt.Errorf("failed to read value: %w", err)
	}

	return frame{tag: Tag(tag), length: length, value: value}, nil
}

// Writer appends records to a trace file. It belongs to the dispatch
// goroutine and is not safe for concurrent use.
type Writer struct {
	f *os.File
	w *bufio.Writer
}

func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %v", err)
	}
	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

func (w *Writer) Append(v any) error {
	tag, err := tagFor(v)
	if err != nil {
		return err
	}

	value, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %v", err)
	}
	if len(value) > valueMaxLength {
		return ErrMaxLengthExceeded
	}

	frm := frame{tag: tag, length: uint16(len(value)), value: value}
	if err := writeFrame(w.w, frm); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace file: %v", err)
	}
	return nil
}

func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("failed to flush trace file: %v", err)
	}
	return w.f.Close()
}

// Reader iterates over the records of a trace file.
type Reader struct {
	f *os.File
	r *bufio.Reader
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %v", err)
	}
	return &Reader{f: f, r: bufio.NewReader(f)}, nil
}

// Next returns the next record, io.EOF at the end of the trace.
func (r *Reader) Next() (any, error) {
	frm, err := readFrame(r.r)
	if err != nil {
		return nil, err
	}

	switch frm.tag {
	case TagButtonDown:
		var v ButtonDown
		if err := unmarshal(frm.value, &v); err != nil {
			return nil, err
		}
		return v, nil
	case TagButtonUp:
		var v ButtonUp
		if err := unmarshal(frm.value, &v); err != nil {
			return nil, err
		}
		return v, nil
	case TagMotion:
		var v Motion
		if err := unmarshal(frm.value, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, fmt.Errorf("unknown record tag %d", frm.tag)
}

func (r *Reader) Close() error {
	return r.f.Close()
}

func unmarshal(b []byte, v any) error {
	if err := cbor.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed to unmarshal record: %v", err)
	}
	return nil
}
