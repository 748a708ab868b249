package factory_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/vovakirdan/beltworks/internal/factory"
	"github.com/vovakirdan/beltworks/internal/factory/belt"
	"github.com/vovakirdan/beltworks/internal/factory/event"
	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/item"
	"github.com/vovakirdan/beltworks/internal/factory/machine"
	"github.com/vovakirdan/beltworks/internal/factory/port"
)

func testSettings() factory.Settings {
	return factory.Settings{
		Cols:            8,
		Rows:            8,
		CellSize:        1,
		BPM:             60, // one beat per simulated second
		BeatsPerMeasure: 4,
		GeneratorRetry:  0.5,
		Seed:            7,
		Catalog: map[string]machine.Definition{
			"mine": {
				Kind:           "mine",
				Size:           grid.S(1, 1),
				OutputMaterial: "M",
				Duration:       0.5,
			},
			"furnace": {
				Kind:           "furnace",
				Size:           grid.S(1, 1),
				InputMaterial:  "M",
				OutputMaterial: "ingot",
				Duration:       0.5,
				Ports: []port.Def{
					{Kind: port.Input, Side: grid.South, Offset: port.Centered},
					{Kind: port.Output, Side: grid.North, Offset: port.Centered},
				},
			},
			"assembler": {
				Kind:     "assembler",
				Size:     grid.S(2, 1),
				Duration: 1,
				Recipes: []machine.Recipe{{
					Name:    "gear",
					Inputs:  []item.Stack{{Material: "ingot", Amount: 2}},
					Outputs: []item.Stack{{Material: "gear", Amount: 1}},
				}},
			},
		},
	}
}

type recorder struct{ events []event.Event }

func (r *recorder) Publish(e event.Event) { r.events = append(r.events, e) }

func TestGeneratorDeliversAfterTwoTicks(t *testing.T) {
	f := factory.New(testSettings(), nil)
	b, err := f.PlaceBelt(grid.C(2, 3), grid.North)
	if err != nil {
		t.Fatalf("place belt: %v", err)
	}
	mine, err := f.PlaceMachine("mine", grid.C(2, 2), grid.North)
	if err != nil {
		t.Fatalf("place mine: %v", err)
	}
	if mine.Status() != machine.Producing {
		t.Fatalf("generator with a free belt should start, got %v", mine.Status())
	}

	// cycle completes without a beat
	f.Step(0.5)
	if got := mine.Pending(); len(got) != 1 || got[0] != "M" {
		t.Fatalf("expected M pending, got %v", got)
	}
	if b.HasItem() {
		t.Fatal("outputs must wait for the next machine phase")
	}

	f.Tick()
	f.Tick()

	it, ok := b.Item()
	if !ok || it.Material != "M" {
		t.Fatalf("expected M on the belt, got %v ok=%v", it, ok)
	}
	if len(mine.Pending()) != 0 {
		t.Errorf("pending should be empty, got %v", mine.Pending())
	}
	if f.Belts().Items() != 1 || f.Inventory().Total() != 0 {
		t.Errorf("expected exactly one item, belts=%d inventory=%d", f.Belts().Items(), f.Inventory().Total())
	}
}

func TestLineFeedsFurnace(t *testing.T) {
	f := factory.New(testSettings(), nil)
	rec := &recorder{}
	f.Subscribe(rec)

	first, err := f.PlaceBelt(grid.C(0, 1), grid.North)
	if err != nil {
		t.Fatalf("place belt: %v", err)
	}
	if _, err := f.ExtendBelt(first, grid.C(0, 2)); err != nil {
		t.Fatalf("extend belt: %v", err)
	}
	if _, err := f.PlaceMachine("mine", grid.C(0, 0), grid.North); err != nil {
		t.Fatalf("place mine: %v", err)
	}
	furnace, err := f.PlaceMachine("furnace", grid.C(0, 3), grid.North)
	if err != nil {
		t.Fatalf("place furnace: %v", err)
	}

	for i := 0; i < 20; i++ {
		f.Step(0.5)
	}

	if f.Inventory().Count("ingot") < 2 {
		t.Errorf("expected ingots from the furnace, inventory %v", f.Inventory().Map())
	}
	if f.Inventory().Count("M") != 0 {
		t.Errorf("ore should travel by belt, inventory %v", f.Inventory().Map())
	}

	produced := map[item.Material]int{}
	for _, e := range rec.events {
		if p, ok := e.(event.MaterialProduced); ok {
			produced[p.Material]++
		}
	}
	// every mined unit is on a belt, queued, in a cycle or already smelted
	inFurnace := furnace.QueueLen() + len(furnace.Pending())
	if furnace.Status() == machine.Producing {
		inFurnace++
	}
	if got := f.Belts().Items() + inFurnace + produced["ingot"]; got != produced["M"] {
		t.Errorf("material not conserved: mined %d, accounted %d", produced["M"], got)
	}
}

func TestPlacementFailureLeavesGridUntouched(t *testing.T) {
	f := factory.New(testSettings(), nil)
	if _, err := f.PlaceMachine("assembler", grid.C(3, 3), grid.North); err != nil {
		t.Fatalf("place: %v", err)
	}

	testCases := []struct {
		name   string
		anchor grid.Cell
		o      grid.Orientation
		err    error
	}{
		{"overlap", grid.C(4, 3), grid.North, factory.ErrOccupied},
		{"outside", grid.C(7, 0), grid.North, factory.ErrOutOfBounds},
		{"rotated outside", grid.C(0, 7), grid.East, factory.ErrOutOfBounds},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before := f.Grid().Len()
			_, err := f.PlaceMachine("assembler", tc.anchor, tc.o)
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
			if f.Grid().Len() != before || len(f.Machines()) != 1 {
				t.Error("failed placement must not change the grid")
			}
		})
	}

	if _, err := f.PlaceMachine("reactor", grid.C(0, 0), grid.North); !errors.Is(err, factory.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestPlaceMachineNear(t *testing.T) {
	f := factory.New(testSettings(), nil)
	if _, err := f.PlaceMachine("mine", grid.C(4, 4), grid.North); err != nil {
		t.Fatalf("place: %v", err)
	}
	m, err := f.PlaceMachineNear("mine", grid.C(4, 4), grid.North)
	if err != nil {
		t.Fatalf("place near: %v", err)
	}
	p, _ := m.Placement()
	if p.Anchor != grid.C(3, 5) {
		t.Errorf("expected the first ring cell (3,5), got %v", p.Anchor)
	}

	small := testSettings()
	small.Cols, small.Rows = 1, 1
	full := factory.New(small, nil)
	full.PlaceMachine("mine", grid.C(0, 0), grid.North)
	if _, err := full.PlaceMachineNear("mine", grid.C(0, 0), grid.North); !errors.Is(err, factory.ErrNoFreeArea) {
		t.Errorf("expected ErrNoFreeArea, got %v", err)
	}
}

func TestRemoveDuringTickIsDeferred(t *testing.T) {
	f := factory.New(testSettings(), nil)
	m, err := f.PlaceMachine("furnace", grid.C(1, 1), grid.North)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	m.TryQueueInventoryItem("M")
	m.TryQueueInventoryItem("M")

	var placedDuringTick bool
	f.Clock().OnBeat(func(int) {
		if err := f.Remove(m); err != nil {
			t.Errorf("remove: %v", err)
		}
		_, placedDuringTick = f.Grid().PlacementOf(m)
	})
	f.Tick()

	if !placedDuringTick {
		t.Error("removal must wait for the tick to finish")
	}
	if _, ok := f.Grid().PlacementOf(m); ok {
		t.Error("machine should be removed after the tick")
	}
	if len(f.Machines()) != 0 {
		t.Errorf("expected no machines, got %d", len(f.Machines()))
	}
	if f.Inventory().Count("M") != 2 {
		t.Errorf("queued and in-flight inputs should be refunded, inventory %v", f.Inventory().Map())
	}
	if err := f.Remove(m); !errors.Is(err, factory.ErrNotPlaced) {
		t.Errorf("expected ErrNotPlaced, got %v", err)
	}
}

func TestRemoveProducingMachineRefundsCycleInputs(t *testing.T) {
	f := factory.New(testSettings(), nil)
	asm, _ := f.PlaceMachine("assembler", grid.C(0, 0), grid.North)
	f.Inventory().Deposit("ingot", 2)
	f.Feed(asm, "ingot")
	f.Feed(asm, "ingot")
	f.Step(0.5)
	if asm.Status() != machine.Producing {
		t.Fatalf("assembler should be producing, got %v", asm.Status())
	}

	if err := f.Remove(asm); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := f.Inventory().Count("ingot"); got != 2 {
		t.Errorf("expected both ingots back, inventory %v", f.Inventory().Map())
	}
	if f.Inventory().Count("gear") != 0 {
		t.Error("an unfinished cycle must not produce")
	}
}

func TestRemoveBeltRefundsItem(t *testing.T) {
	f := factory.New(testSettings(), nil)
	b, _ := f.PlaceBelt(grid.C(0, 0), grid.East)
	b.TryReceive(item.Item{ID: 1, Material: "ingot"})

	if err := f.Remove(b); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if f.Inventory().Count("ingot") != 1 || f.Belts().Len() != 0 {
		t.Errorf("belt item should go to inventory, inventory %v belts %d", f.Inventory().Map(), f.Belts().Len())
	}
}

func TestRotateOccupant(t *testing.T) {
	f := factory.New(testSettings(), nil)
	m, _ := f.PlaceMachine("assembler", grid.C(0, 0), grid.North)

	o, err := f.RotateOccupant(m, true)
	if err != nil || o != grid.East {
		t.Fatalf("expected East, got %v err=%v", o, err)
	}
	r, _ := f.Grid().Footprint(m)
	if r.W != 1 || r.H != 2 {
		t.Errorf("rotated footprint should be 1x2, got %dx%d", r.W, r.H)
	}
	if factory.Rotate(grid.West, true) != grid.North || factory.Rotate(grid.North, false) != grid.West {
		t.Error("Rotate should wrap around")
	}
}

func TestMovedCornerIsStraightened(t *testing.T) {
	testCases := []struct {
		name    string
		move    func(f *factory.Factory, b *belt.Belt) error
		forward grid.Cell
	}{
		{"moved", func(f *factory.Factory, b *belt.Belt) error {
			return f.Place(b, grid.C(5, 5), grid.North)
		}, grid.C(5, 6)},
		{"rotated", func(f *factory.Factory, b *belt.Belt) error {
			_, err := f.RotateOccupant(b, false)
			return err
		}, grid.C(0, 1)},
	}

	for _, tc := range testCases {
		f := factory.New(testSettings(), nil)
		b, _ := f.PlaceBelt(grid.C(1, 1), grid.North)
		child, err := f.ExtendBelt(b, grid.C(2, 1))
		if err != nil || b.Turn() != belt.Right {
			t.Fatalf("%s: expected a right corner, got %v err=%v", tc.name, b.Turn(), err)
		}

		if err := tc.move(f, b); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if b.Turn() != belt.Straight || b.Locked() {
			t.Errorf("%s: corner state should reset, turn %v locked %v", tc.name, b.Turn(), b.Locked())
		}
		if b.Next() != nil || child.Prev() != nil {
			t.Errorf("%s: old link should be dropped", tc.name)
		}
		if b.ForwardCell() != tc.forward {
			t.Errorf("%s: expected forward %v, got %v", tc.name, tc.forward, b.ForwardCell())
		}
	}
}

func TestPortCells(t *testing.T) {
	f := factory.New(testSettings(), nil)
	furnace, _ := f.PlaceMachine("furnace", grid.C(3, 3), grid.East)
	b, _ := f.PlaceBelt(grid.C(6, 6), grid.South)

	testCases := []struct {
		name     string
		occ      grid.Occupant
		kind     port.Kind
		expected grid.Cell
	}{
		{"furnace input", furnace, port.Input, grid.C(2, 3)},
		{"furnace output", furnace, port.Output, grid.C(4, 3)},
		{"belt input", b, port.Input, grid.C(6, 7)},
		{"belt output", b, port.Output, grid.C(6, 5)},
	}

	for _, tc := range testCases {
		cells := f.PortCells(tc.occ, tc.kind)
		if len(cells) != 1 || cells[0] != tc.expected {
			t.Errorf("%s: expected [%v], got %v", tc.name, tc.expected, cells)
		}
	}
}

func TestRepairAll(t *testing.T) {
	f := factory.New(testSettings(), nil)
	a, _ := f.PlaceMachine("furnace", grid.C(0, 0), grid.North)
	b, _ := f.PlaceMachine("furnace", grid.C(2, 0), grid.North)
	f.PlaceMachine("furnace", grid.C(4, 0), grid.North)
	a.Break()
	b.Break()

	if n := f.RepairAll(); n != 2 {
		t.Errorf("expected 2 repairs, got %d", n)
	}
	if f.Stats().Broken != 0 {
		t.Error("no machine should stay broken")
	}
}

func TestFeedFromInventory(t *testing.T) {
	f := factory.New(testSettings(), nil)
	furnace, _ := f.PlaceMachine("furnace", grid.C(0, 0), grid.North)
	f.Inventory().Deposit("M", 1)

	if f.Feed(furnace, "ingot") {
		t.Error("furnace does not take ingots")
	}
	if !f.Feed(furnace, "M") {
		t.Fatal("feed should succeed")
	}
	if f.Feed(furnace, "M") {
		t.Error("inventory is empty now")
	}
	if furnace.Status() != machine.Producing {
		t.Errorf("fed furnace should produce, got %v", furnace.Status())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	settings := testSettings()
	f := factory.New(settings, nil)
	first, _ := f.PlaceBelt(grid.C(0, 1), grid.North)
	corner, _ := f.ExtendBelt(first, grid.C(0, 2))
	f.ExtendBelt(corner, grid.C(1, 2))
	f.PlaceMachine("mine", grid.C(0, 0), grid.North)
	asm, _ := f.PlaceMachine("assembler", grid.C(4, 4), grid.North)
	asm.TryQueueInventoryItem("ingot")
	f.Inventory().Deposit("gear", 3)
	for i := 0; i < 5; i++ {
		f.Step(0.5)
	}

	data, err := json.Marshal(f.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var snap factory.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	g, err := factory.Load(settings, &snap, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if g.Clock().Beat() != f.Clock().Beat() || g.Clock().Ticks() != f.Clock().Ticks() {
		t.Errorf("clock not restored: %d/%d vs %d/%d", g.Clock().Beat(), g.Clock().Ticks(), f.Clock().Beat(), f.Clock().Ticks())
	}
	if g.Inventory().Count("gear") != 3 {
		t.Errorf("inventory not restored: %v", g.Inventory().Map())
	}
	if g.Belts().Len() != 3 || g.Belts().Items() != f.Belts().Items() {
		t.Errorf("belts not restored: %d belts %d items", g.Belts().Len(), g.Belts().Items())
	}
	restoredCorner, ok := g.Belts().BeltAt(grid.C(0, 2))
	if !ok {
		t.Fatal("corner belt missing after restore")
	}
	if restoredCorner.Turn() != belt.Right || !restoredCorner.Locked() {
		t.Errorf("corner not restored: turn %v locked %v", restoredCorner.Turn(), restoredCorner.Locked())
	}
	if restoredCorner.Prev() == nil || restoredCorner.Next() == nil {
		t.Error("belt links not restored")
	}
	m, ok := g.Machine(asm.ID)
	if !ok || m.Buffer()["ingot"] != 1 {
		t.Errorf("assembler buffer not restored")
	}

	again, _ := json.Marshal(g.Snapshot())
	if string(again) != string(data) {
		t.Errorf("snapshot changed after restore:\n%s\n%s", data, again)
	}

	if err := g.Restore(&snap); !errors.Is(err, factory.ErrNotEmpty) {
		t.Errorf("expected ErrNotEmpty, got %v", err)
	}
}

func TestRestoreUnnamedRecipeMidCycle(t *testing.T) {
	settings := testSettings()
	settings.Catalog["press"] = machine.Definition{
		Kind:     "press",
		Size:     grid.S(1, 1),
		Duration: 1,
		Recipes: []machine.Recipe{{
			Inputs:  []item.Stack{{Material: "ingot", Amount: 1}},
			Outputs: []item.Stack{{Material: "plate", Amount: 1}},
		}},
	}
	f := factory.New(settings, nil)
	press, _ := f.PlaceMachine("press", grid.C(3, 3), grid.North)
	f.Inventory().Deposit("ingot", 1)
	if !f.Feed(press, "ingot") {
		t.Fatal("feed should succeed")
	}
	f.Step(0.5)

	data, err := json.Marshal(f.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var snap factory.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	g, err := factory.Load(settings, &snap, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m, ok := g.Machine(press.ID)
	if !ok || m.Status() != machine.Producing {
		t.Fatalf("restored press should be producing")
	}
	for i := 0; i < 6; i++ {
		g.Step(0.5)
	}
	if g.Inventory().Count("plate") != 1 {
		t.Errorf("restored cycle should finish, inventory %v", g.Inventory().Map())
	}
}
