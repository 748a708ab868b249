package factory

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/beltworks/internal/factory/belt"
	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/item"
	"github.com/vovakirdan/beltworks/internal/factory/machine"
)

// SnapshotVersion is the current snapshot format.
const SnapshotVersion = 1

// Snapshot is the persisted state of a factory.
type Snapshot struct {
	Version   int                   `json:"version"`
	Beat      int                   `json:"beat"`
	Ticks     uint64                `json:"ticks"`
	BPM       float64               `json:"bpm"`
	LastItem  uint64                `json:"last_item"`
	Machines  []MachineRecord       `json:"machines"`
	Belts     []BeltRecord          `json:"belts"`
	Inventory map[item.Material]int `json:"inventory,omitempty"`
}

// MachineRecord is one machine in a snapshot.
type MachineRecord struct {
	ID          int              `json:"id"`
	Kind        string           `json:"kind"`
	Anchor      grid.Cell        `json:"anchor"`
	Orientation grid.Orientation `json:"orientation"`
	State       machine.State    `json:"state"`
}

// BeltRecord is one belt in a snapshot.
type BeltRecord struct {
	ID          int              `json:"id"`
	Cell        grid.Cell        `json:"cell"`
	Orientation grid.Orientation `json:"orientation"`
	Turn        string           `json:"turn,omitempty"`
	Locked      bool             `json:"locked,omitempty"`
	Item        *item.Item       `json:"item,omitempty"`
	Next        int              `json:"next,omitempty"`
}

// Snapshot captures the factory state.
func (f *Factory) Snapshot() *Snapshot {
	s := &Snapshot{
		Version:   SnapshotVersion,
		Beat:      f.clock.Beat(),
		Ticks:     f.clock.Ticks(),
		BPM:       f.clock.BPM(),
		LastItem:  f.items.Last(),
		Inventory: f.inventory.Map(),
	}
	for _, m := range f.Machines() {
		p, _ := m.Placement()
		s.Machines = append(s.Machines, MachineRecord{
			ID:          m.ID,
			Kind:        m.Kind(),
			Anchor:      p.Anchor,
			Orientation: p.Orientation,
			State:       m.Export(),
		})
	}
	for _, b := range f.belts.Belts() {
		rec := BeltRecord{
			ID:          b.ID,
			Cell:        b.Cell(),
			Orientation: b.Orientation(),
			Locked:      b.Locked(),
		}
		if b.IsCorner() {
			rec.Turn = b.Turn().String()
		}
		if it, ok := b.Item(); ok {
			rec.Item = &it
		}
		if b.Next() != nil {
			rec.Next = b.Next().ID
		}
		s.Belts = append(s.Belts, rec)
	}
	return s
}

// Restore rebuilds an empty factory from s. Notifications are not raised
// for restored state.
func (f *Factory) Restore(s *Snapshot) error {
	if f.grid.Len() > 0 {
		return ErrNotEmpty
	}
	if s.Version != SnapshotVersion {
		return fmt.Errorf("factory: unsupported snapshot version %d", s.Version)
	}

	f.items.Reset(s.LastItem)
	if s.BPM > 0 {
		f.clock.SetBPM(s.BPM)
	}

	belts := make(map[int]*belt.Belt, len(s.Belts))
	for _, rec := range s.Belts {
		b := f.belts.NewBeltWithID(rec.ID)
		if err := f.grid.Place(b, rec.Cell, rec.Orientation); err != nil {
			return fmt.Errorf("restore belt %d: %w", rec.ID, err)
		}
		turn, ok := belt.ParseTurn(rec.Turn)
		if !ok {
			return fmt.Errorf("restore belt %d: unknown turn %q", rec.ID, rec.Turn)
		}
		f.belts.Configure(b, turn, rec.Locked)
		f.belts.Insert(b)
		belts[rec.ID] = b
	}
	for _, rec := range s.Belts {
		b := belts[rec.ID]
		if rec.Next != 0 {
			next, ok := belts[rec.Next]
			if !ok {
				return fmt.Errorf("restore belt %d: unknown next %d", rec.ID, rec.Next)
			}
			f.belts.Link(b, next)
		}
		if rec.Item != nil {
			f.belts.Load(b, *rec.Item)
		}
	}

	for _, rec := range s.Machines {
		def, ok := f.settings.Catalog[rec.Kind]
		if !ok {
			return fmt.Errorf("restore machine %d: %w: %q", rec.ID, ErrUnknownKind, rec.Kind)
		}
		m := machine.New(rec.ID, def)
		if err := f.grid.Place(m, rec.Anchor, rec.Orientation); err != nil {
			return fmt.Errorf("restore machine %d: %w", rec.ID, err)
		}
		f.register(m)
		m.Restore(rec.State)
	}

	for mat, n := range s.Inventory {
		f.inventory.Deposit(mat, n)
	}
	f.clock.Restore(s.Beat, s.Ticks)
	return nil
}

// Load builds a factory from settings and a snapshot.
func Load(settings Settings, s *Snapshot, logger *log.Logger) (*Factory, error) {
	f := New(settings, logger)
	if err := f.Restore(s); err != nil {
		return nil, err
	}
	return f, nil
}
