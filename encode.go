package pdist

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

var byteOrder = binary.LittleEndian

// maxPrealloc bounds the capacity reserved from an untrusted length
// prefix. Longer payloads grow as their bytes arrive.
const maxPrealloc = 1 << 12

// countingByteReader counts the bytes consumed by varint decoding.
type countingByteReader struct {
	io.ByteReader
	n int
}

func (c *countingByteReader) ReadByte() (byte, error) {
	b, err := c.ByteReader.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

func binaryRead(r io.Reader, data any) (int, error) {
	switch v := data.(type) {
	case *int:
		br, ok := r.(io.ByteReader)
		if !ok {
			return 0, fmt.Errorf("reader does not implement io.ByteReader")
		}

		cr := &countingByteReader{ByteReader: br}
		i, err := binary.ReadVarint(cr)
		if err != nil {
			return cr.n, err
		}

		*v = int(i)
		return cr.n, nil

	case *string:
		var ln int
		n, err := binaryRead(r, &ln)
		if err != nil {
			return n, err
		}
		if ln < 0 {
			return n, fmt.Errorf("invalid string length: %d", ln)
		}

		var sb strings.Builder
		sb.Grow(min(ln, maxPrealloc))
		m, err := io.CopyN(&sb, r, int64(ln))
		n += int(m)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return n, fmt.Errorf("reading string of length %d: %w", ln, err)
		}
		*v = sb.String()
		return n, nil

	case io.ReaderFrom:
		n, err := v.ReadFrom(r)
		return int(n), err

	default:
		return binary.Size(data), binary.Read(r, byteOrder, data)
	}
}

func binaryWrite(w io.Writer, data any) (int, error) {
	switch v := data.(type) {
	case int:
		var buf [binary.MaxVarintLen64]byte
		n := binary.PutVarint(buf[:], int64(v))
		n, err := w.Write(buf[:n])
		return n, err
	case io.WriterTo:
		n, err := v.WriteTo(w)
		return int(n), err
	case string:
		return multiBinaryWrite(
			w,
			len(v),
			[]byte(v),
		)
	default:
		sz := binary.Size(data)
		err := binary.Write(w, byteOrder, data)
		if err != nil {
			return 0, fmt.Errorf("encoding %T: %w", data, err)
		}
		return sz, err
	}
}

func multiBinaryWrite(w io.Writer, data ...any) (int, error) {
	var written int
	for _, d := range data {
		n, err := binaryWrite(w, d)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func multiBinaryRead(r io.Reader, data ...any) (int, error) {
	var read int
	for i, d := range data {
		n, err := binaryRead(r, d)
		read += n
		if err != nil {
			return read, fmt.Errorf("reading %T at index %v: %w", d, i, err)
		}
	}
	return read, nil
}

const encodingVersion = 1

// WriteTo encodes the diagram as a version, a point count and the
// (birth, death) pairs as little-endian float64s.
func (d Diagram) WriteTo(w io.Writer) (int64, error) {
	n, err := multiBinaryWrite(w, encodingVersion, len(d))
	if err != nil {
		return int64(n), fmt.Errorf("encode header: %w", err)
	}
	births, deaths := d.columns()
	for i := range d {
		m, err := multiBinaryWrite(w, births[i], deaths[i])
		n += m
		if err != nil {
			return int64(n), fmt.Errorf("encode point %d: %w", i, err)
		}
	}
	return int64(n), nil
}

// ReadFrom decodes a diagram written by WriteTo, replacing d's contents.
// r must implement io.ByteReader; other readers are buffered.
func (d *Diagram) ReadFrom(r io.Reader) (int64, error) {
	if _, ok := r.(io.ByteReader); !ok {
		r = bufio.NewReader(r)
	}

	var version, count int
	n, err := multiBinaryRead(r, &version, &count)
	if err != nil {
		return int64(n), err
	}
	if version != encodingVersion {
		return int64(n), fmt.Errorf("incompatible encoding version: %d", version)
	}
	if count < 0 {
		return int64(n), fmt.Errorf("invalid point count: %d", count)
	}

	// count is untrusted until the points have been read.
	out := make(Diagram, 0, min(count, maxPrealloc))
	for i := 0; i < count; i++ {
		var p Point
		m, err := multiBinaryRead(r, &p.Birth, &p.Death)
		n += m
		if err != nil {
			return int64(n), fmt.Errorf("decoding point %d: %w", i, err)
		}
		out = append(out, p)
	}
	*d = out
	return int64(n), nil
}

var (
	_ io.WriterTo   = Diagram(nil)
	_ io.ReaderFrom = (*Diagram)(nil)
)
