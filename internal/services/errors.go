package services

import "errors"

// Dashboard service errors
var (
	// Dataset errors
	ErrNoDataLoaded = errors.New("no portfolio data loaded")

	// Upload errors
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("payload too large")

	// Pagination errors
	ErrInvalidPage     = errors.New("invalid page")
	ErrInvalidPageSize = errors.New("invalid page size")
)
