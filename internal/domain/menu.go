package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// MenuNode is a single persisted menu entry.
type MenuNode struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parentId"`
	Order     int       `json:"order"`
	Depth     int       `json:"depth"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsRoot reports whether the node has no parent reference.
func (n MenuNode) IsRoot() bool {
	return n.ParentID == nil
}

// MenuTree is a MenuNode with its children materialized for tree reads.
type MenuTree struct {
	MenuNode
	Children []*MenuTree `json:"children"`
}

// OptionalID distinguishes an omitted id field from one explicitly set to null.
type OptionalID struct {
	Set bool
	ID  *string
}

// SetID returns an OptionalID pointing at id.
func SetID(id string) OptionalID {
	return OptionalID{Set: true, ID: &id}
}

// SetNull returns an OptionalID explicitly cleared to null.
func SetNull() OptionalID {
	return OptionalID{Set: true}
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.ID = nil
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.ID = &id
	return nil
}

func (o OptionalID) MarshalJSON() ([]byte, error) {
	if o.ID == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.ID)
}

// MenuPatch lists the columns a store update should overwrite. Nil fields
// and an unset Parent are left untouched.
type MenuPatch struct {
	Name   *string
	Parent OptionalID
	Order  *int
	Depth  *int
}

// SameParent reports whether two parent references point at the same node.
func SameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
