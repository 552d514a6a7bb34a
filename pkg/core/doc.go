// Package core defines the shared types used across ailink: the feature
// catalog entry and its merge rules, the in-memory tabular frame, and the
// error taxonomy surfaced to callers.
//
// Concrete warehouse adapters live in pkg/adapters/ subdirectories and the
// metadata-resolution engine lives under internal/.
package core

// Version is the library version embedded in compiled query comments.
const Version = "1.0.0"
