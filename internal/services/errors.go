package services

import "errors"

// Chart service errors
var (
	// Dataset errors
	ErrDatasetNotLoaded = errors.New("dataset not loaded")
	ErrEmptyDataset     = errors.New("dataset is empty")

	// Lookup errors
	ErrCountryNotFound = errors.New("country not found")
)
