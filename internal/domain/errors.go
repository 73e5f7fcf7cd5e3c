// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnresolvedProject indicates a sample program file whose normalized name
// matches no approved project. Callers drop the file and continue.
var ErrUnresolvedProject = errors.New("no approved project matches file")

// ErrSourceUnavailable indicates that the code archive or the documentation
// tree could not be opened, cloned, or read. It is fatal to ingestion.
var ErrSourceUnavailable = errors.New("source tree unavailable")

// ErrAlreadyEnriched is returned when provenance is attached to a repo twice.
var ErrAlreadyEnriched = errors.New("repo already enriched")

// ErrValidation indicates invalid input (config values, lookup arguments).
var ErrValidation = errors.New("validation error")
