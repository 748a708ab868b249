package port_test

import (
	"testing"

	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/port"
)

func TestDefaultOutputUnderRotation(t *testing.T) {
	anchor := grid.C(5, 5)
	base := grid.S(1, 1)

	testCases := []struct {
		o    grid.Orientation
		cell grid.Cell
		side grid.Orientation
	}{
		{grid.North, grid.C(5, 6), grid.North},
		{grid.East, grid.C(6, 5), grid.East},
		{grid.South, grid.C(5, 4), grid.South},
		{grid.West, grid.C(4, 5), grid.West},
	}

	for _, tc := range testCases {
		p := port.Resolve(port.DefaultOutput(), base, grid.Placement{Anchor: anchor, Orientation: tc.o})
		if p.Cell != tc.cell || p.Side != tc.side {
			t.Errorf("%v: expected %v/%v, got %v/%v", tc.o, tc.cell, tc.side, p.Cell, p.Side)
		}
	}
}

func TestResolveRectangularFootprint(t *testing.T) {
	// 3x2 machine, input on its local west side at the bottom row,
	// output centred on its local north side.
	base := grid.S(3, 2)
	in := port.Def{Kind: port.Input, Side: grid.West, Offset: 0}
	out := port.Def{Kind: port.Output, Side: grid.North, Offset: port.Centered}

	testCases := []struct {
		o       grid.Orientation
		inCell  grid.Cell
		inSide  grid.Orientation
		outCell grid.Cell
		outSide grid.Orientation
	}{
		{grid.North, grid.C(-1, 0), grid.West, grid.C(1, 2), grid.North},
		{grid.East, grid.C(0, 3), grid.North, grid.C(2, 1), grid.East},
		{grid.South, grid.C(3, 1), grid.East, grid.C(1, -1), grid.South},
		{grid.West, grid.C(1, -1), grid.South, grid.C(-1, 1), grid.West},
	}

	for _, tc := range testCases {
		p := grid.Placement{Anchor: grid.C(0, 0), Orientation: tc.o}
		gotIn := port.Resolve(in, base, p)
		gotOut := port.Resolve(out, base, p)
		if gotIn.Cell != tc.inCell || gotIn.Side != tc.inSide {
			t.Errorf("%v input: expected %v/%v, got %v/%v", tc.o, tc.inCell, tc.inSide, gotIn.Cell, gotIn.Side)
		}
		if gotOut.Cell != tc.outCell || gotOut.Side != tc.outSide {
			t.Errorf("%v output: expected %v/%v, got %v/%v", tc.o, tc.outCell, tc.outSide, gotOut.Cell, gotOut.Side)
		}
	}
}

func TestResolvedPortsAreAdjacentToFootprint(t *testing.T) {
	base := grid.S(2, 3)
	var defs []port.Def
	for _, side := range grid.Orientations {
		for off := 0; off < 3; off++ {
			defs = append(defs, port.Def{Kind: port.Input, Side: side, Offset: off})
		}
	}

	for _, o := range grid.Orientations {
		p := grid.Placement{Anchor: grid.C(4, 7), Orientation: o}
		rect := grid.RectOf(p.Anchor, p.Size(sizeOnly(base)))
		for _, d := range defs {
			pt := port.Resolve(d, base, p)
			if rect.Contains(pt.Cell) {
				t.Errorf("%v %+v: port cell %v inside footprint", o, d, pt.Cell)
			}
			inner := pt.Cell.Step(pt.Side.Opposite())
			if !rect.Contains(inner) {
				t.Errorf("%v %+v: port cell %v does not face the footprint from %v", o, d, pt.Cell, pt.Side)
			}
		}
	}
}

func TestFilterFallsBackToDefaultOutput(t *testing.T) {
	defs := []port.Def{{Kind: port.Input, Side: grid.South, Offset: port.Centered}}

	outs := port.Filter(defs, port.Output)
	if len(outs) != 1 || outs[0] != port.DefaultOutput() {
		t.Errorf("expected default output, got %+v", outs)
	}
	ins := port.Filter(nil, port.Input)
	if len(ins) != 0 {
		t.Errorf("inputs never fall back, got %+v", ins)
	}
}

func TestCellsKeepDeclarationOrder(t *testing.T) {
	defs := []port.Def{
		{Kind: port.Output, Side: grid.East, Offset: 0},
		{Kind: port.Input, Side: grid.South, Offset: 0},
		{Kind: port.Output, Side: grid.North, Offset: 0},
	}
	cells := port.Cells(defs, port.Output, grid.S(1, 1), grid.Placement{Anchor: grid.C(2, 2)})
	want := []grid.Cell{grid.C(3, 2), grid.C(2, 3)}
	if len(cells) != len(want) {
		t.Fatalf("expected %d cells, got %d", len(want), len(cells))
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("cell %d: expected %v, got %v", i, want[i], cells[i])
		}
	}
}

type sizeOnly grid.Size

func (s sizeOnly) BaseSize() grid.Size { return grid.Size(s) }
