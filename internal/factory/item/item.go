// Package item defines materials, material stacks and the logical item
// tokens carried by belts.
package item

import "fmt"

// Material names a kind of material ("ore", "ingot").
type Material string

// Stack is an amount of one material.
type Stack struct {
	Material Material `json:"material" yaml:"material"`
	Amount   int      `json:"amount" yaml:"amount"`
}

// Valid reports whether the stack names a material and a positive amount.
func (s Stack) Valid() bool {
	return s.Material != "" && s.Amount > 0
}

// String returns a compact representation like "2x ore".
func (s Stack) String() string {
	return fmt.Sprintf("%dx %s", s.Amount, s.Material)
}

// Item is a single logical token. At any time it rides exactly one belt
// slot or sits in exactly one machine buffer.
type Item struct {
	ID       uint64   `json:"id"`
	Material Material `json:"material"`
}

// IsZero reports whether the item is the empty value.
func (it Item) IsZero() bool {
	return it.ID == 0 && it.Material == ""
}

// Sequence hands out item IDs. The zero value starts at 1.
type Sequence struct {
	last uint64
}

// New mints a new item of the given material.
func (s *Sequence) New(m Material) Item {
	s.last++
	return Item{ID: s.last, Material: m}
}

// Last returns the most recently issued ID.
func (s *Sequence) Last() uint64 {
	return s.last
}

// Reset continues numbering after last. Used when restoring snapshots.
func (s *Sequence) Reset(last uint64) {
	s.last = last
}
