package factory

import (
	"sort"

	"github.com/vovakirdan/beltworks/internal/factory/item"
)

// Inventory is the fallback store for outputs no belt accepted and for
// items recovered from removed occupants.
type Inventory struct {
	counts map[item.Material]int
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{counts: make(map[item.Material]int)}
}

// Deposit implements machine.Economy.
func (inv *Inventory) Deposit(m item.Material, amount int) {
	if m == "" || amount <= 0 {
		return
	}
	inv.counts[m] += amount
}

// Take removes amount of m. It reports false and removes nothing when not
// enough is stored.
func (inv *Inventory) Take(m item.Material, amount int) bool {
	if amount <= 0 || inv.counts[m] < amount {
		return false
	}
	inv.counts[m] -= amount
	if inv.counts[m] == 0 {
		delete(inv.counts, m)
	}
	return true
}

// Count returns the stored amount of m.
func (inv *Inventory) Count(m item.Material) int {
	return inv.counts[m]
}

// Total returns the number of stored units.
func (inv *Inventory) Total() int {
	total := 0
	for _, n := range inv.counts {
		total += n
	}
	return total
}

// Stacks returns the contents sorted by material.
func (inv *Inventory) Stacks() []item.Stack {
	out := make([]item.Stack, 0, len(inv.counts))
	for m, n := range inv.counts {
		out = append(out, item.Stack{Material: m, Amount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Material < out[j].Material })
	return out
}

// Map returns a copy of the contents.
func (inv *Inventory) Map() map[item.Material]int {
	out := make(map[item.Material]int, len(inv.counts))
	for m, n := range inv.counts {
		out[m] = n
	}
	return out
}
