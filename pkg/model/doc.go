// Copyright © 2018 One Concern

// Package model describes the records produced when a legacy history is
// converted into blobs.
//
// Changesets are identified by a content-derived NodeHash. Manifest and file
// contents are addressed by a key derived from their payload (see ContentKey),
// so two entries sharing a key carry byte-identical payloads.
package model
