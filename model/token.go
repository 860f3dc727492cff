package model

// Change is one recorded byte edit.
type Change struct {
	Address  int
	Old, New byte
}

// ChangeToken collects the byte edits made during one logical change.
// A nil token records nothing.
type ChangeToken struct {
	changes []Change
}

// NewChangeToken creates an empty token.
func NewChangeToken() *ChangeToken {
	return &ChangeToken{}
}

// Record notes that address changed from old to new.
func (t *ChangeToken) Record(address int, old, new byte) {
	if t == nil || old == new {
		return
	}
	t.changes = append(t.changes, Change{Address: address, Old: old, New: new})
}

// Changes returns the recorded edits in the order they were made.
func (t *ChangeToken) Changes() []Change {
	if t == nil {
		return nil
	}
	return t.changes
}

// HasChanged reports whether any byte was edited.
func (t *ChangeToken) HasChanged() bool {
	return t != nil && len(t.changes) > 0
}
