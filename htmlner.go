// Package htmlner turns HTML documents into position-aware text tokens,
// encodes entity annotations as IOB2 tags, extracts per-token features for
// an external sequence labeller, and reconstructs entity text from
// predicted tag sequences.
//
// This package contains domain types, interfaces and the pure core
// algorithms following Ben Johnson's Standard Package Layout.
// Implementations live in subdirectories named after their primary
// dependency (e.g., goquery/, sqlite/, wapiti/).
package htmlner
