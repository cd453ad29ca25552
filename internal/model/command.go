package model

import (
	"errors"
	"strings"
)

// ErrUnknownOperation is returned when parsing an unrecognized operation.
var ErrUnknownOperation = errors.New("unknown operation")

// Operation is the kind of update a command applies.
type Operation string

const (
	OperationReplace   Operation = "replace"
	OperationIncrement Operation = "increment"
	OperationCollect   Operation = "collect"
)

// ParseOperation parses an operation name case-insensitively.
func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(s)))
	if !op.IsValid() {
		return "", ErrUnknownOperation
	}
	return op, nil
}

// IsValid checks if the operation is one of the known kinds.
func (o Operation) IsValid() bool {
	switch o {
	case OperationReplace, OperationIncrement, OperationCollect:
		return true
	}
	return false
}

// Command is a request to update one user's profile.
// Properties holds raw boundary values keyed by property name.
type Command struct {
	ID         string
	UserID     UserID
	Operation  Operation
	Properties map[string]any
}
