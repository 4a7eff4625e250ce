package service

import "errors"

// Plan errors
var (
	ErrPlanNotFound     = errors.New("no plan found")
	ErrWeekNotFound     = errors.New("week not found")
	ErrDayNotFound      = errors.New("day not found")
	ErrWorkoutNotFound  = errors.New("workout not found")
	ErrDuplicateNumber  = errors.New("an entry with this number already exists")
	ErrInvalidDayNumber = errors.New("day number must be between 1 and 7")
	ErrInvalidWorkout   = errors.New("workout name is required")
	ErrStorageDisabled  = errors.New("object storage is not configured")
	ErrNoVideo          = errors.New("workout has no video")
	ErrInvalidVideoType = errors.New("unsupported video content type")
)

// Defaults errors
var (
	ErrDefaultsNotFound    = errors.New("no defaults found")
	ErrInvalidDefaultsData = errors.New("defaults data must be valid JSON")
	ErrLanguageRequired    = errors.New("language is required")
)

// Credential errors. Both deny the request.
var (
	ErrInvalidCredential     = errors.New("invalid admin password")
	ErrCredentialCheckFailed = errors.New("admin credential could not be verified")
)
