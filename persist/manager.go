package persist

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/SaxonRah/Linen/component"
	"github.com/SaxonRah/Linen/errors"
	"github.com/SaxonRah/Linen/metric"
)

const (
	// ManagerName is the registry name of the persistence manager
	ManagerName = "persistence"

	// magic identifies a Linen save stream
	magic = "LNSV"

	// currentVersion is the stream version written by this manager
	currentVersion = uint32(1)

	// maxRecordCount caps the record count read back from a stream
	maxRecordCount = 1 << 20
)

// Manager is the component that snapshots and restores the state of a
// registered subset of components. It is itself registered with the
// registry it reads from, so hosts load it like any other component.
type Manager struct {
	mu        sync.Mutex
	persisted []string // registration order, drives record order on save
	seen      map[string]struct{}

	registry *component.Registry
	logger   *slog.Logger
	metrics  *metric.Metrics
}

// NewManager creates a persistence manager. The registry reference arrives
// at Initialize time through dependency injection.
func NewManager() *Manager {
	return &Manager{
		seen:   make(map[string]struct{}),
		logger: slog.Default().With("component", ManagerName),
	}
}

// Name implements component.Component
func (m *Manager) Name() string { return ManagerName }

// Dependencies implements component.Component
func (m *Manager) Dependencies() []string { return nil }

// Initialize captures the owning registry and ambient collaborators
func (m *Manager) Initialize(deps component.Dependencies) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.registry = deps.Registry
	m.logger = deps.GetLoggerWithComponent(ManagerName)
	if deps.Metrics != nil {
		m.metrics = deps.Metrics.CoreMetrics()
	}
	m.logger.Info("persistence manager initialized")
	return nil
}

// Shutdown clears the persisted set
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.persisted = nil
	m.seen = make(map[string]struct{})
	m.registry = nil
	m.logger.Info("persistence manager shut down")
	return nil
}

// RegisterForPersistence adds a component name to the persisted set.
// Idempotent: registering the same name twice keeps its original position.
func (m *Manager) RegisterForPersistence(name string) error {
	if err := component.ValidateName(name); err != nil {
		return errors.Wrap(err, "Manager", "RegisterForPersistence", "name validation")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[name]; ok {
		return nil
	}
	m.seen[name] = struct{}{}
	m.persisted = append(m.persisted, name)
	m.logger.Info("registered component for persistence", "name", name)
	return nil
}

// Persisted returns the persisted component names in registration order
func (m *Manager) Persisted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.persisted...)
}

// Save snapshots every persisted component to path in the given format.
// The path's extension is normalized to the format's canonical one. A
// persisted name with no active component produces an empty placeholder
// record so the stream's record count stays consistent.
func (m *Manager) Save(path string, format Format) error {
	m.mu.Lock()
	names := append([]string(nil), m.persisted...)
	registry := m.registry
	m.mu.Unlock()

	if registry == nil {
		return errors.WrapConflict(errors.ErrInvalidState, "Manager", "Save", "manager not initialized")
	}

	start := time.Now()
	path = EnsureExtension(path, format)

	f, err := os.Create(path)
	if err != nil {
		return errors.WrapInternal(err, "Manager", "Save", fmt.Sprintf("create %q", path))
	}
	if err := m.save(f, names, registry, format); err != nil {
		return err
	}

	if m.metrics != nil {
		m.metrics.SaveDuration.WithLabelValues(format.String()).Observe(time.Since(start).Seconds())
	}
	m.logger.Info("saved", "path", path, "format", format.String(), "records", len(names))
	return nil
}

// Load restores every record in the stream at path into its named
// component. Records for components that are absent or not serializable
// are skipped exactly, leaving the remaining records intact.
func (m *Manager) Load(path string, format Format) error {
	m.mu.Lock()
	registry := m.registry
	m.mu.Unlock()

	if registry == nil {
		return errors.WrapConflict(errors.ErrInvalidState, "Manager", "Load", "manager not initialized")
	}

	start := time.Now()
	path = EnsureExtension(path, format)

	f, err := os.Open(path)
	if err != nil {
		return errors.WrapInternal(err, "Manager", "Load", fmt.Sprintf("open %q", path))
	}
	defer f.Close()

	switch format {
	case FormatText:
		err = m.loadText(f, registry)
	default:
		err = m.loadBinary(f, registry)
	}
	if err != nil {
		return err
	}

	if m.metrics != nil {
		m.metrics.LoadDuration.WithLabelValues(format.String()).Observe(time.Since(start).Seconds())
	}
	m.logger.Info("loaded", "path", path, "format", format.String())
	return nil
}

// save writes the stream and closes the destination. A close failure on an
// otherwise clean save is still a failed save: buffered bytes may never have
// reached the device.
func (m *Manager) save(w io.WriteCloser, names []string, registry *component.Registry, format Format) error {
	var err error
	switch format {
	case FormatText:
		err = m.saveText(w, names, registry)
	default:
		err = m.saveBinary(w, names, registry)
	}

	closeErr := w.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return errors.WrapInternal(closeErr, "Manager", "Save", "stream close")
	}
	return nil
}

// saveBinary writes the stream layout:
//
//	magic "LNSV" | u32 version | u32 recordCount |
//	{ len-prefixed name | len-prefixed payload }*
//
// Length framing of the payload is what lets a reader skip a record it
// cannot deliver without desynchronizing the rest of the stream.
func (m *Manager) saveBinary(w io.Writer, names []string, registry *component.Registry) error {
	bw := NewBinaryWriter(w)

	if _, err := io.WriteString(w, magic); err != nil {
		return errors.WrapInternal(err, "Manager", "Save", "header write")
	}
	bw.WriteUint32(currentVersion)
	bw.WriteUint32(uint32(len(names)))

	for _, name := range names {
		bw.WriteString(name)

		payload, err := m.binaryPayload(name, registry)
		if err != nil {
			return err
		}
		bw.WriteBytes(payload)
	}
	return bw.Err()
}

// binaryPayload serializes one component into an isolated buffer. Absent
// or non-serializable components produce an empty placeholder payload.
func (m *Manager) binaryPayload(name string, registry *component.Registry) ([]byte, error) {
	c, ok := registry.Get(name)
	if !ok {
		m.logger.Warn("persisted component not active, writing placeholder", "name", name)
		return nil, nil
	}
	s, ok := c.(BinarySerializable)
	if !ok {
		m.logger.Warn("component has no binary serialization, writing placeholder", "name", name)
		return nil, nil
	}

	var buf bytes.Buffer
	pw := NewBinaryWriter(&buf)
	if err := s.SerializeBinary(pw); err != nil {
		return nil, errors.Wrap(err, "Manager", "Save", fmt.Sprintf("serialize %q", name))
	}
	if err := pw.Err(); err != nil {
		return nil, errors.Wrap(err, "Manager", "Save", fmt.Sprintf("serialize %q", name))
	}
	return buf.Bytes(), nil
}

func (m *Manager) loadBinary(r io.Reader, registry *component.Registry) error {
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(r, head); err != nil {
		msg := fmt.Errorf("%w: missing header", errors.ErrCorruptSave)
		return errors.WrapInternal(msg, "Manager", "Load", "header read")
	}
	if string(head) != magic {
		msg := fmt.Errorf("%w: bad magic %q", errors.ErrCorruptSave, head)
		return errors.WrapInternal(msg, "Manager", "Load", "header validation")
	}

	br := NewBinaryReader(r)
	version := br.ReadUint32()
	count := br.ReadUint32()
	if err := br.Err(); err != nil {
		return err
	}
	if version != currentVersion {
		m.logger.Warn("save version differs from current, attempting load anyway",
			"saveVersion", version, "currentVersion", currentVersion)
	}
	if count > maxRecordCount {
		msg := fmt.Errorf("%w: implausible record count %d", errors.ErrCorruptSave, count)
		return errors.WrapInternal(msg, "Manager", "Load", "record count validation")
	}

	for i := uint32(0); i < count; i++ {
		name := br.ReadString()
		payload := br.ReadBytes()
		if err := br.Err(); err != nil {
			return err
		}
		if len(payload) == 0 {
			continue
		}

		c, ok := registry.Get(name)
		if !ok {
			m.logger.Warn("save record for unknown component skipped", "name", name)
			m.recordSkipped()
			continue
		}
		s, ok := c.(BinarySerializable)
		if !ok {
			m.logger.Warn("component has no binary serialization, record skipped", "name", name)
			m.recordSkipped()
			continue
		}

		pr := NewBinaryReader(bytes.NewReader(payload))
		if err := s.DeserializeBinary(pr); err != nil {
			return errors.Wrap(err, "Manager", "Load", fmt.Sprintf("deserialize %q", name))
		}
		if err := pr.Err(); err != nil {
			return errors.Wrap(err, "Manager", "Load", fmt.Sprintf("deserialize %q", name))
		}
	}
	return nil
}

// saveText writes the stream layout:
//
//	linen.magic=LNSV
//	linen.version=1
//	linen.records=<n>
//	record.<i>=<name>
//	<name>.<field>=<value> ...
//	<name>.fields=<count>
//
// Each component writes into a view prefixed with its own name, so records
// never collide and a reader can ignore an entire record by prefix.
func (m *Manager) saveText(w io.Writer, names []string, registry *component.Registry) error {
	tw := NewTextWriter()
	tw.WriteString("linen.magic", magic)
	tw.WriteInt("linen.version", int(currentVersion))
	tw.WriteInt("linen.records", len(names))

	for i, name := range names {
		tw.WriteString(fmt.Sprintf("record.%d", i), name)

		before := tw.Len()
		if c, ok := registry.Get(name); ok {
			if s, ok := c.(TextSerializable); ok {
				if err := s.SerializeText(tw.Prefixed(name + ".")); err != nil {
					return errors.Wrap(err, "Manager", "Save", fmt.Sprintf("serialize %q", name))
				}
			} else {
				m.logger.Warn("component has no text serialization, writing placeholder", "name", name)
			}
		} else {
			m.logger.Warn("persisted component not active, writing placeholder", "name", name)
		}
		tw.WriteInt(name+".fields", tw.Len()-before)
	}

	if err := tw.Err(); err != nil {
		return err
	}
	return tw.Flush(w)
}

func (m *Manager) loadText(r io.Reader, registry *component.Registry) error {
	tr, err := NewTextReader(r)
	if err != nil {
		return err
	}

	if got, ok := tr.String("linen.magic"); !ok || got != magic {
		msg := fmt.Errorf("%w: bad magic %q", errors.ErrCorruptSave, got)
		return errors.WrapInternal(msg, "Manager", "Load", "header validation")
	}
	if version, ok := tr.Int("linen.version"); ok && uint32(version) != currentVersion {
		m.logger.Warn("save version differs from current, attempting load anyway",
			"saveVersion", version, "currentVersion", currentVersion)
	}
	count, ok := tr.Int("linen.records")
	if !ok || count < 0 || count > maxRecordCount {
		msg := fmt.Errorf("%w: missing or implausible record count", errors.ErrCorruptSave)
		return errors.WrapInternal(msg, "Manager", "Load", "record count validation")
	}

	for i := 0; i < count; i++ {
		name, ok := tr.String(fmt.Sprintf("record.%d", i))
		if !ok {
			msg := fmt.Errorf("%w: record %d missing", errors.ErrCorruptSave, i)
			return errors.WrapInternal(msg, "Manager", "Load", "record lookup")
		}
		if fields, ok := tr.Int(name + ".fields"); ok && fields == 0 {
			continue
		}

		c, ok := registry.Get(name)
		if !ok {
			m.logger.Warn("save record for unknown component skipped", "name", name)
			m.recordSkipped()
			continue
		}
		s, ok := c.(TextSerializable)
		if !ok {
			m.logger.Warn("component has no text serialization, record skipped", "name", name)
			m.recordSkipped()
			continue
		}

		if err := s.DeserializeText(tr.Prefixed(name + ".")); err != nil {
			return errors.Wrap(err, "Manager", "Load", fmt.Sprintf("deserialize %q", name))
		}
	}
	return nil
}

func (m *Manager) recordSkipped() {
	if m.metrics != nil {
		m.metrics.RecordsSkipped.Inc()
	}
}
