package idgen

import "github.com/google/uuid"

// NewFunc produces a new globally unique identifier. Tests may replace it to
// obtain deterministic work-item identifiers.
var NewFunc = func() string { return uuid.New().String() }

func New() string { return NewFunc() }
