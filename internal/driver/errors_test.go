package driver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"element not found", &ElementNotFoundError{Element: "login_button"}, true},
		{"instruction failed", &InstructionError{Action: "fill_field", Detail: "no field"}, true},
		{"timeout", &TimeoutError{Op: "navigate", Err: errors.New("deadline")}, true},
		{"stale element", &StaleElementError{Op: "click save_draft_button", Err: errors.New("cannot find context with specified id")}, true},
		{"wrapped stale element", fmt.Errorf("phase: %w", &StaleElementError{Op: "fill editor_title", Err: errors.New("context destroyed")}), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped element not found", fmt.Errorf("phase: %w", &ElementNotFoundError{Element: "x"}), true},
		{"init error", &InitError{Kind: KindVision, Err: errors.New("no api key")}, false},
		{"init wrapping a timeout stays terminal", &InitError{Kind: KindDeterministic, Err: &TimeoutError{Op: "connect", Err: errors.New("refused")}}, false},
		{"plain error", errors.New("boom"), false},
		{"canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRecoverable(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	err := &ElementNotFoundError{Element: "publish_button", Tried: []string{"#publish", "input[name='publish']"}}
	assert.Contains(t, err.Error(), "publish_button")
	assert.Contains(t, err.Error(), "#publish")

	ierr := &InstructionError{Action: "crop_to_size", Detail: "no preset visible"}
	assert.Contains(t, ierr.Error(), "crop_to_size")
	assert.Contains(t, ierr.Error(), "no preset visible")
}
