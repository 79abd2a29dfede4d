// Package repository defines error values shared across repositories.
// These sentinels let handlers distinguish failure scenarios without
// inspecting driver-specific errors. Not-found conditions are reported
// as sql.ErrNoRows, matching database/sql conventions.
package repository

import "errors"

// ErrRollNoExists is returned when creating a student with a roll
// number that is already registered. Handlers should translate this
// into an HTTP 409 response.
var ErrRollNoExists = errors.New("roll number already exists")

// ErrUsernameExists is returned when creating a volunteer with a
// username that is already taken. Handlers should translate this
// into an HTTP 409 response.
var ErrUsernameExists = errors.New("username already exists")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as a duplicate token number. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
