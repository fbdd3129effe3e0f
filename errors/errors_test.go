package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestNewConfigurationError(t *testing.T) {
	err := NewConfigurationError("task declares %d rules and %d rulesets", 2, 1)
	require.Error(t, err)

	assert.Equal(t, "task declares 2 rules and 1 rulesets", err.Error())
	assert.True(t, IsConfigurationError(err))
	assert.True(t, IsConfigurationError(Wrap(err, "building task")))
}

func TestWrapConfiguration(t *testing.T) {
	assert.Nil(t, WrapConfiguration(nil, "ignored"))

	base := New("template: unexpected EOF")
	err := WrapConfiguration(base, "rendering system template")

	assert.True(t, IsConfigurationError(err))
	assert.True(t, Is(err, base))
	assert.Contains(t, err.Error(), "rendering system template")
}

func TestErrNoDriver(t *testing.T) {
	assert.True(t, IsConfigurationError(ErrNoDriver))
	assert.True(t, Is(Wrap(ErrNoDriver, "task abc"), ErrNoDriver))
	assert.False(t, IsConfigurationError(ErrTaskBusy))
}

func TestWithHint(t *testing.T) {
	err := WithHint(ErrNoDriver, "set driver.provider in prompttask.toml")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "set driver.provider in prompttask.toml", hints[0])
}

func TestNotFound(t *testing.T) {
	err := NewNotFoundError("template %q", "tasks/missing")

	assert.True(t, IsNotFoundError(err))
	assert.Contains(t, err.Error(), "tasks/missing")
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsNotFoundError(fmt.Errorf("plain")))
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.False(t, IsConfigurationError(nil))
}
