package persist_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaxonRah/Linen/errors"
	"github.com/SaxonRah/Linen/persist"
)

func TestBinaryPrimitivesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := persist.NewBinaryWriter(&buf)

	w.WriteBool(true)
	w.WriteBool(false)
	w.WriteInt32(-42)
	w.WriteUint32(7)
	w.WriteInt64(1 << 40)
	w.WriteFloat32(1.5)
	w.WriteFloat64(2.25)
	w.WriteString("strength")
	w.WriteString("")
	require.NoError(t, w.Err())

	r := persist.NewBinaryReader(&buf)
	assert.True(t, r.ReadBool())
	assert.False(t, r.ReadBool())
	assert.Equal(t, int32(-42), r.ReadInt32())
	assert.Equal(t, uint32(7), r.ReadUint32())
	assert.Equal(t, int64(1<<40), r.ReadInt64())
	assert.Equal(t, float32(1.5), r.ReadFloat32())
	assert.Equal(t, 2.25, r.ReadFloat64())
	assert.Equal(t, "strength", r.ReadString())
	assert.Equal(t, "", r.ReadString())
	require.NoError(t, r.Err())
}

func TestBinaryCollectionsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := persist.NewBinaryWriter(&buf)

	w.WriteStringSlice([]string{"alpha", "beta"})
	w.WriteInt32Map(map[string]int32{"strength": 42, "agility": 7})
	require.NoError(t, w.Err())

	r := persist.NewBinaryReader(&buf)
	assert.Equal(t, []string{"alpha", "beta"}, r.ReadStringSlice())
	assert.Equal(t, map[string]int32{"strength": 42, "agility": 7}, r.ReadInt32Map())
	require.NoError(t, r.Err())
}

func TestBinaryMapDeterministic(t *testing.T) {
	encode := func() []byte {
		var buf bytes.Buffer
		w := persist.NewBinaryWriter(&buf)
		w.WriteInt32Map(map[string]int32{"c": 3, "a": 1, "b": 2})
		require.NoError(t, w.Err())
		return buf.Bytes()
	}
	assert.Equal(t, encode(), encode(), "identical state must produce identical bytes")
}

func TestBinaryTruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	w := persist.NewBinaryWriter(&buf)
	w.WriteString("strength")
	require.NoError(t, w.Err())

	// Drop the tail of the encoded string
	data := buf.Bytes()[:buf.Len()-3]

	r := persist.NewBinaryReader(bytes.NewReader(data))
	r.ReadString()
	require.Error(t, r.Err())
	assert.ErrorIs(t, r.Err(), errors.ErrCorruptSave)
}

func TestBinaryImplausibleLength(t *testing.T) {
	// A length prefix far beyond any real payload must fail fast, not
	// attempt the allocation.
	data := []byte{0xff, 0xff, 0xff, 0xff}
	r := persist.NewBinaryReader(bytes.NewReader(data))
	r.ReadString()
	require.Error(t, r.Err())
	assert.ErrorIs(t, r.Err(), errors.ErrCorruptSave)
}

func TestBinaryReaderStopsAfterError(t *testing.T) {
	r := persist.NewBinaryReader(bytes.NewReader(nil))
	assert.Equal(t, int32(0), r.ReadInt32())
	first := r.Err()
	require.Error(t, first)

	// Subsequent reads return zero values and keep the first error
	assert.Equal(t, "", r.ReadString())
	assert.Equal(t, first, r.Err())
}

func TestTextRoundTrip(t *testing.T) {
	w := persist.NewTextWriter()
	w.WriteString("name", "avatar")
	w.WriteInt("count", 3)
	w.WriteInt32("experience", 100)
	w.WriteFloat64("ratio", 0.5)
	w.WriteBool("active", true)
	require.NoError(t, w.Err())

	var buf bytes.Buffer
	require.NoError(t, w.Flush(&buf))

	r, err := persist.NewTextReader(&buf)
	require.NoError(t, err)

	name, ok := r.String("name")
	require.True(t, ok)
	assert.Equal(t, "avatar", name)

	count, ok := r.Int("count")
	require.True(t, ok)
	assert.Equal(t, 3, count)

	xp, ok := r.Int32("experience")
	require.True(t, ok)
	assert.Equal(t, int32(100), xp)

	ratio, ok := r.Float64("ratio")
	require.True(t, ok)
	assert.Equal(t, 0.5, ratio)

	active, ok := r.Bool("active")
	require.True(t, ok)
	assert.True(t, active)
}

func TestTextWriterPreservesInsertionOrder(t *testing.T) {
	w := persist.NewTextWriter()
	w.WriteString("zebra", "1")
	w.WriteString("alpha", "2")

	var buf bytes.Buffer
	require.NoError(t, w.Flush(&buf))
	assert.Equal(t, "zebra=1\nalpha=2\n", buf.String())
}

func TestTextWriterRejectsUnescapableKeys(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		sentinel error
	}{
		{"equals in key", "bad=key", "v", errors.ErrInvalidKey},
		{"newline in key", "bad\nkey", "v", errors.ErrInvalidKey},
		{"empty key", "", "v", errors.ErrInvalidKey},
		{"newline in value", "key", "bad\nvalue", errors.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := persist.NewTextWriter()
			w.WriteString(tt.key, tt.value)
			require.Error(t, w.Err())
			assert.ErrorIs(t, w.Err(), tt.sentinel)
			assert.True(t, errors.IsInvalid(w.Err()))
		})
	}
}

func TestTextValueMayContainEquals(t *testing.T) {
	// Only the first '=' separates key from value, so values keep theirs
	w := persist.NewTextWriter()
	w.WriteString("formula", "a=b")
	require.NoError(t, w.Err())

	var buf bytes.Buffer
	require.NoError(t, w.Flush(&buf))

	r, err := persist.NewTextReader(&buf)
	require.NoError(t, err)
	v, ok := r.String("formula")
	require.True(t, ok)
	assert.Equal(t, "a=b", v)
}

func TestTextReaderMissingKeyTolerated(t *testing.T) {
	r, err := persist.NewTextReader(strings.NewReader("present=1\n"))
	require.NoError(t, err)

	_, ok := r.String("absent")
	assert.False(t, ok)
	_, ok = r.Int("absent")
	assert.False(t, ok)
}

func TestTextReaderMalformedLine(t *testing.T) {
	_, err := persist.NewTextReader(strings.NewReader("no separator here\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCorruptSave)
}

func TestTextPrefixedViews(t *testing.T) {
	w := persist.NewTextWriter()
	w.Prefixed("progression.").WriteInt32("experience", 100)
	w.Prefixed("quests.").WriteInt32("experience", 5)

	var buf bytes.Buffer
	require.NoError(t, w.Flush(&buf))

	r, err := persist.NewTextReader(&buf)
	require.NoError(t, err)

	xp, ok := r.Prefixed("progression.").Int32("experience")
	require.True(t, ok)
	assert.Equal(t, int32(100), xp)

	xp, ok = r.Prefixed("quests.").Int32("experience")
	require.True(t, ok)
	assert.Equal(t, int32(5), xp)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    persist.Format
		wantErr bool
	}{
		{"binary", persist.FormatBinary, false},
		{"Binary", persist.FormatBinary, false},
		{"text", persist.FormatText, false},
		{" txt ", persist.FormatText, false},
		{"yaml", persist.FormatBinary, true},
	}
	for _, tt := range tests {
		got, err := persist.ParseFormat(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			assert.True(t, errors.IsInvalid(err))
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestEnsureExtension(t *testing.T) {
	assert.Equal(t, "save.sav", persist.EnsureExtension("save", persist.FormatBinary))
	assert.Equal(t, "save.txt", persist.EnsureExtension("save", persist.FormatText))
	assert.Equal(t, "save.sav", persist.EnsureExtension("save.txt", persist.FormatBinary))
	assert.Equal(t, "save.txt", persist.EnsureExtension("save.sav", persist.FormatText))
	assert.Equal(t, "archive.tar.sav", persist.EnsureExtension("archive.tar", persist.FormatBinary))
}
