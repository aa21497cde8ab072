// Package flags is a Redis-backed boolean feature-flag store used to gate
// runtime behavior, most notably whether the risk assessment endpoint is
// allowed to run the pipeline.
package flags

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("flag not found")

type Flag struct {
	Key       string    `json:"key"`
	Value     bool      `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
