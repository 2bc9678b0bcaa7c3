package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ElementNotFoundError means no selector candidate matched within the polling
// window. Recoverable: the fallback driver may still find the element.
type ElementNotFoundError struct {
	Element string
	Tried   []string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %q not found (tried %s)", e.Element, strings.Join(e.Tried, ", "))
}

// InstructionError means the reasoning backend could not complete an
// instruction: it returned a fail verdict, malformed actions, or ran out of
// its step budget. Recoverable.
type InstructionError struct {
	Action string
	Detail string
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %q failed: %s", e.Action, e.Detail)
}

// StaleElementError means an element resolved a moment ago was gone by the
// time the driver interacted with it, typically because the page re-rendered
// between resolve and interact (CDP "cannot find context with specified
// id"). Recoverable: the next attempt resolves the element afresh.
type StaleElementError struct {
	Op  string
	Err error
}

func (e *StaleElementError) Error() string {
	return fmt.Sprintf("stale element: %s: %v", e.Op, e.Err)
}

func (e *StaleElementError) Unwrap() error { return e.Err }

// TimeoutError wraps a deadline expiry on a browser operation. Recoverable.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out: %s: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// InitError means the driver could not bring up its browser session at all.
// Terminal: retrying against the same environment will not help.
type InitError struct {
	Kind Kind
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%s driver init failed: %v", e.Kind, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// IsRecoverable reports whether the retry/fallback policy may act on err.
// Element, instruction, stale-reference and timeout failures are transient
// from the policy's point of view; init failures and anything unclassified
// are not.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	var initErr *InitError
	if errors.As(err, &initErr) {
		return false
	}
	var (
		notFound    *ElementNotFoundError
		instruction *InstructionError
		stale       *StaleElementError
		timeout     *TimeoutError
	)
	if errors.As(err, &notFound) || errors.As(err, &instruction) ||
		errors.As(err, &stale) || errors.As(err, &timeout) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
