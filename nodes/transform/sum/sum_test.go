package sum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/flowgraph/config"
	"github.com/brunotm/flowgraph/mock"
)

func TestSumStagesDataPlusDelayedViaRetAccu(t *testing.T) {
	behavior, portsIn, portsOut, err := New(config.NewConfig(nil))
	require.NoError(t, err)
	require.NotNil(t, portsIn)
	require.NotNil(t, portsOut)

	s := behavior.(Sum)
	ctx := &mock.Context{Data: mock.ContextData{Name: "s"}}

	result, err := s.Process(ctx, map[string]interface{}{"data": 1, "delayed": 1000}, 1)
	require.NoError(t, err)
	assert.Nil(t, result.Emissions)

	flushed := ctx.RetFlush()
	assert.Equal(t, 1001, flushed["value"])
}
