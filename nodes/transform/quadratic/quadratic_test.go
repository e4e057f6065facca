package quadratic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/mock"
)

func TestQuadraticSquaresValue(t *testing.T) {
	behavior, portsIn, portsOut, err := New(config.NewConfig(nil))
	require.NoError(t, err)
	require.NotNil(t, portsIn)
	require.NotNil(t, portsOut)

	q := behavior.(Quadratic)
	ctx := &mock.Context{Data: mock.ContextData{Name: "q"}}

	result, err := q.Process(ctx, map[string]interface{}{"value": 4}, 1)
	require.NoError(t, err)
	assert.Equal(t, 16, result.Emissions["value"])
}
