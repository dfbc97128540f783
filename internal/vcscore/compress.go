package vcscore

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// frameBufSize is the buffer used when streaming decompressed frames.
const frameBufSize = 8 * 1024

// maxFrameHeaderLen bounds the "<kind> <size>\x00" prefix of a frame. The
// longest kind is "commit" and the size is at most ten decimal digits.
const maxFrameHeaderLen = 32

// compressFrame deflates a framed object into w.
func compressFrame(w io.Writer, frame []byte) error {
	zw := zlib.NewWriter(w)
	if _, err := zw.Write(frame); err != nil {
		zw.Close()
		return fmt.Errorf("compressing object: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flushing compressed object: %w", err)
	}
	return nil
}

// frameReader is a cursor over a decompressing stream. It is not safe for
// concurrent use; each reader belongs to a single operation.
type frameReader struct {
	zr io.ReadCloser
	br *bufio.Reader
}

// newFrameReader wraps r in an inflating cursor reader.
func newFrameReader(r io.Reader) (*frameReader, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStreamCorrupt, err)
	}
	return &frameReader{zr: zr, br: bufio.NewReaderSize(zr, frameBufSize)}, nil
}

// ReadUntilNull consumes bytes up to and including the next NUL and returns
// them without the terminator. Fails with ErrStreamCorrupt when no NUL
// appears within max bytes or the stream ends first.
func (f *frameReader) ReadUntilNull(max int) ([]byte, error) {
	var out bytes.Buffer
	for out.Len() < max {
		b, err := f.br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: missing NUL terminator", ErrStreamCorrupt)
		}
		if b == 0 {
			return out.Bytes(), nil
		}
		out.WriteByte(b)
	}
	return nil, fmt.Errorf("%w: NUL terminator not found in %d bytes", ErrStreamCorrupt, max)
}

// ReadExact fills dst completely or fails with ErrStreamCorrupt.
func (f *frameReader) ReadExact(dst []byte) error {
	if _, err := io.ReadFull(f.br, dst); err != nil {
		return fmt.Errorf("%w: truncated stream", ErrStreamCorrupt)
	}
	return nil
}

// remainderIsEOF reports whether the stream has no bytes left.
func (f *frameReader) remainderIsEOF() bool {
	_, err := f.br.ReadByte()
	return err == io.EOF
}

func (f *frameReader) Close() error {
	return f.zr.Close()
}
