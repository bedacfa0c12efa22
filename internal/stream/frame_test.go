package stream

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestParseFrame(t *testing.T) {
	in := Frame{Type: FrameChunk, Seq: 7, Offset: 7 * 16, Bytes: []byte{0, 1, 2, 0xff}, Final: true}
	data, err := in.Encode()
	if err != nil {
		t.Fatal(err)
	}

	out, err := ParseFrame(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.Seq != in.Seq || out.Offset != in.Offset || !bytes.Equal(out.Bytes, in.Bytes) || !out.Final {
		t.Errorf("frame = %+v", out)
	}
}

func TestParseFrameRejects(t *testing.T) {
	unknown, _ := msgpack.Marshal(Frame{Type: "subtitle"})

	if _, err := ParseFrame(unknown); !errors.Is(err, ErrUnexpectedFrame) {
		t.Errorf("unknown type: err = %v", err)
	}
	if _, err := ParseFrame([]byte("not msgpack")); err == nil {
		t.Error("garbage: expected an error")
	}
}

func collect(t *testing.T, c *Chunker) []Frame {
	t.Helper()
	var frames []Frame
	for {
		f, err := c.Next()
		if err == io.EOF {
			return frames
		}
		if err != nil {
			t.Fatal(err)
		}
		frames = append(frames, f)
	}
}

func TestChunker(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefghij"), 5) // 50 bytes
	frames := collect(t, NewChunker(bytes.NewReader(data), uint64(len(data)), 16))

	if len(frames) != 4 {
		t.Fatalf("frames = %d, want 4", len(frames))
	}
	var joined []byte
	for i, f := range frames {
		if f.Seq != uint64(i) || f.Offset != uint64(i*16) {
			t.Errorf("frame %d: seq %d offset %d", i, f.Seq, f.Offset)
		}
		if f.Final != (i == 3) {
			t.Errorf("frame %d: final = %v", i, f.Final)
		}
		joined = append(joined, f.Bytes...)
	}
	if !bytes.Equal(joined, data) {
		t.Error("reassembled bytes differ")
	}
}

func TestChunkerExactMultiple(t *testing.T) {
	data := make([]byte, 32)
	frames := collect(t, NewChunker(bytes.NewReader(data), 32, 16))

	if len(frames) != 2 || !frames[1].Final {
		t.Errorf("frames = %+v", frames)
	}
}

func TestChunkerEmpty(t *testing.T) {
	frames := collect(t, NewChunker(bytes.NewReader(nil), 0, 16))

	if len(frames) != 1 || !frames[0].Final || len(frames[0].Bytes) != 0 {
		t.Errorf("frames = %+v", frames)
	}
}

func TestChunkerIsDeterministic(t *testing.T) {
	data := bytes.Repeat([]byte{1, 2, 3}, 100)
	a := collect(t, NewChunker(bytes.NewReader(data), uint64(len(data)), 64))
	b := collect(t, NewChunker(bytes.NewReader(data), uint64(len(data)), 64))

	for i := range a {
		ea, _ := a[i].Encode()
		eb, _ := b[i].Encode()
		if !bytes.Equal(ea, eb) {
			t.Fatalf("frame %d differs between passes", i)
		}
	}
}
