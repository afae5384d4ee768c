package persist

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/SaxonRah/Linen/errors"
)

// maxBlobLen caps any single length prefix read back from a stream. A length
// beyond this is treated as corruption rather than attempted as an
// allocation.
const maxBlobLen = 1 << 28

// BinaryWriter encodes fixed-width little-endian primitives and
// length-prefixed strings and collections. Write methods record the first
// failure; callers check Err once after a batch of writes.
type BinaryWriter struct {
	w   io.Writer
	err error
}

// NewBinaryWriter wraps an io.Writer for binary encoding
func NewBinaryWriter(w io.Writer) *BinaryWriter {
	return &BinaryWriter{w: w}
}

// Err returns the first write error encountered, if any
func (b *BinaryWriter) Err() error {
	return b.err
}

func (b *BinaryWriter) write(v any) {
	if b.err != nil {
		return
	}
	if err := binary.Write(b.w, binary.LittleEndian, v); err != nil {
		b.err = errors.WrapInternal(err, "BinaryWriter", "write", "stream write")
	}
}

// WriteBool writes a bool as a single byte
func (b *BinaryWriter) WriteBool(v bool) {
	var byteVal uint8
	if v {
		byteVal = 1
	}
	b.write(byteVal)
}

// WriteInt32 writes a fixed-width signed 32-bit integer
func (b *BinaryWriter) WriteInt32(v int32) { b.write(v) }

// WriteUint32 writes a fixed-width unsigned 32-bit integer
func (b *BinaryWriter) WriteUint32(v uint32) { b.write(v) }

// WriteInt64 writes a fixed-width signed 64-bit integer
func (b *BinaryWriter) WriteInt64(v int64) { b.write(v) }

// WriteFloat32 writes an IEEE 754 single-precision float
func (b *BinaryWriter) WriteFloat32(v float32) { b.write(v) }

// WriteFloat64 writes an IEEE 754 double-precision float
func (b *BinaryWriter) WriteFloat64(v float64) { b.write(v) }

// WriteString writes a uint32 byte length followed by the raw bytes
func (b *BinaryWriter) WriteString(v string) {
	b.WriteUint32(uint32(len(v)))
	if b.err != nil || len(v) == 0 {
		return
	}
	if _, err := io.WriteString(b.w, v); err != nil {
		b.err = errors.WrapInternal(err, "BinaryWriter", "WriteString", "stream write")
	}
}

// WriteBytes writes a uint32 length followed by the raw bytes
func (b *BinaryWriter) WriteBytes(v []byte) {
	b.WriteUint32(uint32(len(v)))
	if b.err != nil || len(v) == 0 {
		return
	}
	if _, err := b.w.Write(v); err != nil {
		b.err = errors.WrapInternal(err, "BinaryWriter", "WriteBytes", "stream write")
	}
}

// WriteStringSlice writes a uint32 count followed by each string
func (b *BinaryWriter) WriteStringSlice(v []string) {
	b.WriteUint32(uint32(len(v)))
	for _, s := range v {
		b.WriteString(s)
	}
}

// WriteInt32Map writes a uint32 count followed by key/value pairs in sorted
// key order, so identical state always produces identical bytes.
func (b *BinaryWriter) WriteInt32Map(v map[string]int32) {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteUint32(uint32(len(v)))
	for _, k := range keys {
		b.WriteString(k)
		b.WriteInt32(v[k])
	}
}

// BinaryReader decodes streams produced by BinaryWriter. Read methods return
// the zero value after the first failure; callers check Err once after a
// batch of reads.
type BinaryReader struct {
	r   io.Reader
	err error
}

// NewBinaryReader wraps an io.Reader for binary decoding
func NewBinaryReader(r io.Reader) *BinaryReader {
	return &BinaryReader{r: r}
}

// Err returns the first read error encountered, if any
func (b *BinaryReader) Err() error {
	return b.err
}

func (b *BinaryReader) read(v any) {
	if b.err != nil {
		return
	}
	if err := binary.Read(b.r, binary.LittleEndian, v); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = fmt.Errorf("%w: truncated stream", errors.ErrCorruptSave)
		}
		b.err = errors.WrapInternal(err, "BinaryReader", "read", "stream read")
	}
}

// ReadBool reads a single byte as a bool
func (b *BinaryReader) ReadBool() bool {
	var v uint8
	b.read(&v)
	return v != 0
}

// ReadInt32 reads a fixed-width signed 32-bit integer
func (b *BinaryReader) ReadInt32() int32 {
	var v int32
	b.read(&v)
	return v
}

// ReadUint32 reads a fixed-width unsigned 32-bit integer
func (b *BinaryReader) ReadUint32() uint32 {
	var v uint32
	b.read(&v)
	return v
}

// ReadInt64 reads a fixed-width signed 64-bit integer
func (b *BinaryReader) ReadInt64() int64 {
	var v int64
	b.read(&v)
	return v
}

// ReadFloat32 reads an IEEE 754 single-precision float
func (b *BinaryReader) ReadFloat32() float32 {
	var v float32
	b.read(&v)
	return v
}

// ReadFloat64 reads an IEEE 754 double-precision float
func (b *BinaryReader) ReadFloat64() float64 {
	var v float64
	b.read(&v)
	return v
}

// ReadString reads a uint32 byte length followed by the raw bytes
func (b *BinaryReader) ReadString() string {
	return string(b.ReadBytes())
}

// ReadBytes reads a uint32 length followed by the raw bytes
func (b *BinaryReader) ReadBytes() []byte {
	length := b.ReadUint32()
	if b.err != nil {
		return nil
	}
	if length > maxBlobLen {
		msg := fmt.Errorf("%w: implausible length %d", errors.ErrCorruptSave, length)
		b.err = errors.WrapInternal(msg, "BinaryReader", "ReadBytes", "length validation")
		return nil
	}
	if length == 0 {
		return nil
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		msg := fmt.Errorf("%w: truncated stream", errors.ErrCorruptSave)
		b.err = errors.WrapInternal(msg, "BinaryReader", "ReadBytes", "stream read")
		return nil
	}
	return buf
}

// ReadStringSlice reads a uint32 count followed by each string
func (b *BinaryReader) ReadStringSlice() []string {
	length := b.ReadUint32()
	if b.err != nil {
		return nil
	}
	if length > maxBlobLen {
		msg := fmt.Errorf("%w: implausible count %d", errors.ErrCorruptSave, length)
		b.err = errors.WrapInternal(msg, "BinaryReader", "ReadStringSlice", "count validation")
		return nil
	}
	out := make([]string, 0, length)
	for i := uint32(0); i < length; i++ {
		out = append(out, b.ReadString())
		if b.err != nil {
			return nil
		}
	}
	return out
}

// ReadInt32Map reads a uint32 count followed by key/value pairs
func (b *BinaryReader) ReadInt32Map() map[string]int32 {
	length := b.ReadUint32()
	if b.err != nil {
		return nil
	}
	if length > maxBlobLen {
		msg := fmt.Errorf("%w: implausible count %d", errors.ErrCorruptSave, length)
		b.err = errors.WrapInternal(msg, "BinaryReader", "ReadInt32Map", "count validation")
		return nil
	}
	out := make(map[string]int32, length)
	for i := uint32(0); i < length; i++ {
		k := b.ReadString()
		v := b.ReadInt32()
		if b.err != nil {
			return nil
		}
		out[k] = v
	}
	return out
}

// Skip discards exactly n bytes from the stream
func (b *BinaryReader) Skip(n int64) {
	if b.err != nil || n == 0 {
		return
	}
	if n < 0 || n > math.MaxInt64/2 {
		msg := fmt.Errorf("%w: implausible skip %d", errors.ErrCorruptSave, n)
		b.err = errors.WrapInternal(msg, "BinaryReader", "Skip", "length validation")
		return
	}
	if _, err := io.CopyN(io.Discard, b.r, n); err != nil {
		msg := fmt.Errorf("%w: truncated stream", errors.ErrCorruptSave)
		b.err = errors.WrapInternal(msg, "BinaryReader", "Skip", "stream read")
	}
}
