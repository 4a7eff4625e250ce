package domain

import (
	"encoding/json"
	"time"
)

// DefaultsKind names one family of admin-configured defaults.
type DefaultsKind string

const (
	DefaultsColors     DefaultsKind = "colors"
	DefaultsFavourites DefaultsKind = "favourites"
	DefaultsTools      DefaultsKind = "tools"
)

// ParseDefaultsKind returns the kind for a path segment.
func ParseDefaultsKind(raw string) (DefaultsKind, bool) {
	switch DefaultsKind(raw) {
	case DefaultsColors, DefaultsFavourites, DefaultsTools:
		return DefaultsKind(raw), true
	}
	return "", false
}

// Defaults is an opaque, per-language configuration blob used to pre-populate
// UI state. Exactly one exists per (Kind, Language).
type Defaults struct {
	Kind      DefaultsKind    `bson:"kind" json:"kind"`
	Language  string          `bson:"language" json:"language"`
	Data      json.RawMessage `bson:"data" json:"data"`
	CreatedAt time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time       `bson:"updatedAt" json:"updatedAt"`
}
