package storage

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/beltworks/internal/factory"
)

// encode serialises a snapshot as zstd-compressed JSON.
func (s *Store) encode(snap *factory.Snapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot encode snapshot: %w", err)
	}
	return s.enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// decode reverses encode.
func (s *Store) decode(payload []byte) (*factory.Snapshot, error) {
	raw, err := s.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot decompress snapshot: %w", err)
	}
	var snap factory.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("storage: cannot decode snapshot: %w", err)
	}
	return &snap, nil
}
