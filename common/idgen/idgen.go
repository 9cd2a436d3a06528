// Package idgen issues the int64 primary keys assigned by the service of record.
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out time-ordered unique ids.
type Generator interface {
	Next() int64
}

// Snowflake wraps a snowflake node. Each running origination instance needs its own node id.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for node (0-1023).
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node %d: %w", node, err)
	}
	return &Snowflake{node: n}, nil
}

// Next returns a new id.
func (s *Snowflake) Next() int64 {
	return s.node.Generate().Int64()
}

// Sequence is a deterministic generator for tests.
type Sequence struct {
	next int64
}

// NewSequence starts counting at start.
func NewSequence(start int64) *Sequence {
	return &Sequence{next: start}
}

// Next returns the current value and advances. Not safe for concurrent use.
func (s *Sequence) Next() int64 {
	id := s.next
	s.next++
	return id
}
