package circuitbreaker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/mock"
)

func TestShouldProcessIgnoresMissingDelayed(t *testing.T) {
	behavior, _, _, err := New(config.NewConfig(map[string]interface{}{"delayed": 1000}))
	require.NoError(t, err)
	b := behavior.(*Breaker)

	assert.True(t, b.ShouldProcess(map[string]interface{}{"data": 0}))
	assert.False(t, b.ShouldProcess(map[string]interface{}{}))
}

func TestProcessBootstrapsDelayedFromFallbackOnFirstCounter(t *testing.T) {
	behavior, _, _, err := New(config.NewConfig(map[string]interface{}{"delayed": 1000}))
	require.NoError(t, err)
	b := behavior.(*Breaker)
	ctx := &mock.Context{Data: mock.ContextData{Name: "b"}}

	result, err := b.Process(ctx, map[string]interface{}{"data": 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Emissions["data"])
	assert.Equal(t, 1000, result.Emissions["delayed"])
}

func TestProcessForwardsFeedbackDelayedWhenPresent(t *testing.T) {
	behavior, _, _, err := New(config.NewConfig(map[string]interface{}{"delayed": 1000}))
	require.NoError(t, err)
	b := behavior.(*Breaker)
	ctx := &mock.Context{Data: mock.ContextData{Name: "b"}}

	result, err := b.Process(ctx, map[string]interface{}{"data": 1, "delayed": 1000}, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Emissions["data"])
	assert.Equal(t, 1000, result.Emissions["delayed"])
}
