package model

import "errors"

var (
	// ErrNotFound is returned when an input file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrEmptyTable is returned when an input file has no header row.
	ErrEmptyTable = errors.New("table has no header")
	// ErrNoQuestions is returned when no question/points column pair is recognized.
	ErrNoQuestions = errors.New("no question/points column pairs found")
	// ErrKeyColumns is returned when an answer key file lacks its question or answer column.
	ErrKeyColumns = errors.New("answer key is missing required columns")
)
