package collateral

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"stablecore/storage"
)

// engineState is the persistence boundary for ledger rows. The engine stages
// every mutation on in-memory copies and calls PutPosition only after all
// checks and external calls succeed, which is what makes operations atomic.
// GetPosition must return an owned copy: mutations on it stay invisible
// until PutPosition.
type engineState interface {
	GetPosition(addr common.Address) (*Position, error)
	PutPosition(pos *Position) error
}

// PositionStore persists positions RLP-encoded in the key-value store.
type PositionStore struct {
	db storage.Database
}

func NewPositionStore(db storage.Database) *PositionStore {
	return &PositionStore{db: db}
}

func positionKey(addr common.Address) []byte {
	return []byte("collateral/position/" + addr.Hex())
}

// GetPosition returns the stored position for addr, or nil when the account
// has never touched the engine. A zero position and an absent one are
// indistinguishable to callers.
func (s *PositionStore) GetPosition(addr common.Address) (*Position, error) {
	raw, err := s.db.Get(positionKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	pos := new(Position)
	if err := rlp.DecodeBytes(raw, pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// PutPosition writes the position row for pos.Address.
func (s *PositionStore) PutPosition(pos *Position) error {
	raw, err := rlp.EncodeToBytes(pos)
	if err != nil {
		return err
	}
	return s.db.Put(positionKey(pos.Address), raw)
}
