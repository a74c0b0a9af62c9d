package lab

import (
	"errors"
	"fmt"
	"time"
)

// Result is the discriminated outcome of every lifecycle operation. Failures
// are values, never panics: callers branch on OK and Conflict and render
// Error directly to the user.
type Result struct {
	OK        bool       `json:"ok"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Error     string     `json:"error,omitempty"`
	Conflict  bool       `json:"conflict,omitempty"`
}

func okResult(updatedAt time.Time) *Result {
	return &Result{OK: true, UpdatedAt: &updatedAt}
}

func okBare() *Result {
	return &Result{OK: true}
}

func failNotFound(entity string) *Result {
	return &Result{Error: fmt.Sprintf("%s not found", entity)}
}

// failRead classifies a repository read error: a missing row is NotFound,
// anything else is a store failure and keeps the store's message.
func failRead(entity string, err error) *Result {
	if errors.Is(err, ErrNotFound) {
		return failNotFound(entity)
	}
	return failPersistence(err)
}

func failTransition(msg string) *Result {
	return &Result{Error: msg}
}

func failConflict() *Result {
	return &Result{
		Error:    "the record was modified by someone else; reload and try again",
		Conflict: true,
	}
}

func failValidation(msg string) *Result {
	return &Result{Error: msg}
}

// failPersistence surfaces a store failure with the store's message when one
// exists, a safe fallback otherwise. No stack traces reach callers.
func failPersistence(err error) *Result {
	if err == nil {
		return &Result{Error: "the operation could not be saved"}
	}
	return &Result{Error: err.Error()}
}
