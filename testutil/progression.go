package testutil

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/SaxonRah/Linen/component"
	"github.com/SaxonRah/Linen/errors"
	"github.com/SaxonRah/Linen/event"
	"github.com/SaxonRah/Linen/persist"
)

// ProgressionName is the registry name of the progression fixture
const ProgressionName = "progression"

// EventLevelUp is published when accumulated experience raises the level
const EventLevelUp = "progression.levelup"

// ProgressionComponent is a persistence fixture: a skills map plus an
// experience counter with a derived level. It round-trips through both
// save formats and publishes a level-up event when experience crosses a
// level boundary.
type ProgressionComponent struct {
	mu         sync.Mutex
	skills     map[string]int32
	experience int32
	bus        *event.Bus
}

// NewProgressionComponent creates an empty progression fixture
func NewProgressionComponent() *ProgressionComponent {
	return &ProgressionComponent{skills: make(map[string]int32)}
}

// Name implements component.Component
func (p *ProgressionComponent) Name() string { return ProgressionName }

// Dependencies implements component.Component
func (p *ProgressionComponent) Dependencies() []string { return nil }

// Initialize captures the bus for level-up notifications
func (p *ProgressionComponent) Initialize(deps component.Dependencies) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bus = deps.Bus
	return nil
}

// Shutdown implements component.Component
func (p *ProgressionComponent) Shutdown() error { return nil }

// AddSkill records a named skill value. Empty names and duplicates are
// rejected.
func (p *ProgressionComponent) AddSkill(id string, value int32) error {
	if id == "" {
		return errors.WrapInvalid(errors.ErrInvalidKey, "Progression", "AddSkill", "empty skill id")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.skills[id]; exists {
		msg := fmt.Errorf("%w: skill %q", errors.ErrAlreadyExists, id)
		return errors.WrapConflict(msg, "Progression", "AddSkill", "duplicate skill check")
	}
	p.skills[id] = value
	return nil
}

// Skill returns the value of a named skill
func (p *ProgressionComponent) Skill(id string) (int32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v, ok := p.skills[id]
	return v, ok
}

// Skills returns a copy of the skill map
func (p *ProgressionComponent) Skills() map[string]int32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(map[string]int32, len(p.skills))
	for k, v := range p.skills {
		out[k] = v
	}
	return out
}

// AddExperience accumulates experience and publishes a level-up event if
// the derived level increased.
func (p *ProgressionComponent) AddExperience(amount int32) {
	p.mu.Lock()
	before := levelFor(p.experience)
	p.experience += amount
	after := levelFor(p.experience)
	bus := p.bus
	p.mu.Unlock()

	if after > before && bus != nil {
		_ = bus.Publish(event.New(EventLevelUp, after).WithPriority(event.PriorityHigh))
	}
}

// Experience returns accumulated experience
func (p *ProgressionComponent) Experience() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.experience
}

// Level returns the level derived from experience
func (p *ProgressionComponent) Level() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return levelFor(p.experience)
}

// levelFor derives a level from experience: 1 + floor(sqrt(xp/100))
func levelFor(experience int32) int32 {
	if experience <= 0 {
		return 1
	}
	return 1 + int32(math.Floor(math.Sqrt(float64(experience)/100)))
}

// SerializeBinary implements persist.BinarySerializable
func (p *ProgressionComponent) SerializeBinary(w *persist.BinaryWriter) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	w.WriteInt32(p.experience)
	w.WriteInt32Map(p.skills)
	return w.Err()
}

// DeserializeBinary implements persist.BinarySerializable
func (p *ProgressionComponent) DeserializeBinary(r *persist.BinaryReader) error {
	experience := r.ReadInt32()
	skills := r.ReadInt32Map()
	if err := r.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.experience = experience
	p.skills = skills
	if p.skills == nil {
		p.skills = make(map[string]int32)
	}
	return nil
}

// SerializeText implements persist.TextSerializable. Skills flatten into
// indexed synthetic keys in sorted order so output is deterministic.
func (p *ProgressionComponent) SerializeText(w *persist.TextWriter) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	w.WriteInt32("experience", p.experience)
	w.WriteInt("skills", len(p.skills))

	ids := make([]string, 0, len(p.skills))
	for id := range p.skills {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for i, id := range ids {
		w.WriteString(fmt.Sprintf("skill.%d.id", i), id)
		w.WriteInt32(fmt.Sprintf("skill.%d.value", i), p.skills[id])
	}
	return w.Err()
}

// DeserializeText implements persist.TextSerializable
func (p *ProgressionComponent) DeserializeText(r *persist.TextReader) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := r.Int32("experience"); ok {
		p.experience = v
	}
	count, ok := r.Int("skills")
	if !ok {
		return nil
	}

	skills := make(map[string]int32, count)
	for i := 0; i < count; i++ {
		id, ok := r.String(fmt.Sprintf("skill.%d.id", i))
		if !ok {
			msg := fmt.Errorf("%w: skill %d missing", errors.ErrCorruptSave, i)
			return errors.WrapInternal(msg, "Progression", "DeserializeText", "skill lookup")
		}
		value, _ := r.Int32(fmt.Sprintf("skill.%d.value", i))
		skills[id] = value
	}
	p.skills = skills
	return nil
}
