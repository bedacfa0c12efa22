// Package stream moves a video file from the host to viewers over WebRTC data
// channels and the relay's chunk buffer, and keeps a shared playback clock.
package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Frame types
const (
	FrameMetadata = "metadata"
	FrameChunk    = "chunk"
)

// DefaultChunkSize keeps a base64 encoded frame far below the relay's
// message limit.
const DefaultChunkSize = 16 * 1024

var ErrUnexpectedFrame = errors.New("unexpected frame")

// Frame is the unit sent over the media data channel and pushed to the relay
// buffer. Chunk frames carry Seq, Offset, Bytes and Final; metadata frames
// carry Name and Size.
type Frame struct {
	Type   string `msgpack:"type"`
	Seq    uint64 `msgpack:"seq,omitempty"`
	Offset uint64 `msgpack:"offset,omitempty"`
	Bytes  []byte `msgpack:"bytes,omitempty"`
	Final  bool   `msgpack:"final,omitempty"`
	Name   string `msgpack:"name,omitempty"`
	Size   uint64 `msgpack:"size,omitempty"`
}

// Encode marshals the frame with msgpack.
func (f Frame) Encode() ([]byte, error) {
	data, err := msgpack.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", f.Type, err)
	}
	return data, nil
}

// ParseFrame decodes a msgpack frame.
func ParseFrame(data []byte) (Frame, error) {
	var f Frame
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("parse frame: %w", err)
	}
	switch f.Type {
	case FrameMetadata, FrameChunk:
		return f, nil
	default:
		return Frame{}, fmt.Errorf("%w: %q", ErrUnexpectedFrame, f.Type)
	}
}

// Chunker cuts a reader into numbered chunk frames. Two chunkers over the same
// file with the same chunk size produce identical frames, which is what lets
// viewers merge data channel and relay copies by Seq.
type Chunker struct {
	r      io.Reader
	size   uint64
	buf    []byte
	seq    uint64
	offset uint64
	done   bool
}

// NewChunker creates a chunker for a reader of the given total size.
func NewChunker(r io.Reader, size uint64, chunkSize int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Chunker{r: r, size: size, buf: make([]byte, chunkSize)}
}

// Next returns the next chunk frame, or io.EOF after the final one.
func (c *Chunker) Next() (Frame, error) {
	if c.done {
		return Frame{}, io.EOF
	}

	n, err := io.ReadFull(c.r, c.buf)
	switch {
	case err == io.EOF:
		c.done = true
		if c.seq == 0 {
			// Empty file: a lone final frame still completes the viewer.
			return Frame{Type: FrameChunk, Final: true}, nil
		}
		return Frame{}, io.EOF
	case err == io.ErrUnexpectedEOF:
	case err != nil:
		return Frame{}, fmt.Errorf("read chunk %d: %w", c.seq, err)
	}

	f := Frame{
		Type:   FrameChunk,
		Seq:    c.seq,
		Offset: c.offset,
		Bytes:  append([]byte(nil), c.buf[:n]...),
		Final:  c.offset+uint64(n) >= c.size,
	}

	c.seq++
	c.offset += uint64(n)
	if f.Final {
		c.done = true
	}
	return f, nil
}
