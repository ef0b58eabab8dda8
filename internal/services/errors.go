package services

import "errors"

// Service errors
var (
	// ErrNoUploads is returned when Build or Merge is called without files.
	ErrNoUploads = errors.New("no files uploaded")

	// ErrNoUsableFiles wraps the joined per-file errors when every upload was skipped.
	ErrNoUsableFiles = errors.New("no uploaded file could be processed")
)
