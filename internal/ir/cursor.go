package ir

import (
	"github.com/cockroachdb/errors"
)

// BlockCursor walks the blocks of a region and edits around its position.
// A cursor is past the end once Get returns the null Block.
type BlockCursor struct {
	region  Region
	current Block
}

// Get returns the block under the cursor.
func (cur *BlockCursor) Get() Block { return cur.current }

// MoveNext advances to the next block.
func (cur *BlockCursor) MoveNext() error {
	if cur.current.IsNull() {
		return errors.Wrap(ErrNullHandle, "cursor is past the end")
	}
	next, err := cur.current.NextInRegion()
	if err != nil {
		return err
	}
	cur.current = next
	return nil
}

// Detach unlinks the current block, advances to the next one and returns the
// caller's owned handle of the detached block.
func (cur *BlockCursor) Detach() (Block, error) {
	if cur.current.IsNull() {
		return Block{}, errors.Wrap(ErrNullHandle, "cursor is past the end")
	}
	next, err := cur.current.NextInRegion()
	if err != nil {
		return Block{}, err
	}
	detached, err := cur.current.Detach()
	if err != nil {
		return Block{}, err
	}
	cur.current = next
	return detached, nil
}

// InsertBefore inserts a caller-owned block before the current one; past the
// end it appends.
func (cur *BlockCursor) InsertBefore(b Block) error {
	return cur.region.InsertOwnedBlockBefore(cur.current, b)
}

// InsertAfter inserts a caller-owned block after the current one.
func (cur *BlockCursor) InsertAfter(b Block) error {
	if cur.current.IsNull() {
		return errors.Wrap(ErrNullHandle, "cursor is past the end")
	}
	return cur.region.InsertOwnedBlockAfter(cur.current, b)
}
