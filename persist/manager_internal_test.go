package persist

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaxonRah/Linen/component"
)

// failCloser accepts every write but fails on Close, like a full device
// flushing its last buffer.
type failCloser struct {
	bytes.Buffer
}

func (f *failCloser) Close() error { return fmt.Errorf("device full") }

func TestSaveReportsCloseFailure(t *testing.T) {
	m := NewManager()
	registry := component.NewRegistry(nil, nil, nil)

	for _, format := range []Format{FormatBinary, FormatText} {
		t.Run(format.String(), func(t *testing.T) {
			w := &failCloser{}
			err := m.save(w, nil, registry, format)
			require.Error(t, err, "close failure must fail the save")
			assert.Contains(t, err.Error(), "device full")
		})
	}
}
