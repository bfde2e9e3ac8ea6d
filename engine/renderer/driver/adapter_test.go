package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adapter(name string, id uint32, typ AdapterType, dim uint32, graphics int) AdapterInfo {
	return AdapterInfo{Name: name, DeviceID: id, Type: typ, MaxImageDimension2D: dim, GraphicsFamily: graphics, TransferFamily: -1}
}

func TestSelectAdapterPrefersDiscrete(t *testing.T) {
	adapters := []AdapterInfo{
		adapter("igpu", 1, AdapterTypeIntegratedGPU, 16384, 0),
		adapter("dgpu", 2, AdapterTypeDiscreteGPU, 8192, 0),
		adapter("llvmpipe", 3, AdapterTypeCPU, 4096, 0),
	}
	i, err := SelectAdapter(adapters, nil)
	require.NoError(t, err)
	assert.Equal(t, "igpu", adapters[i].Name, "image dimension outweighs the type bonus")

	adapters[0].MaxImageDimension2D = 4096
	i, err = SelectAdapter(adapters, nil)
	require.NoError(t, err)
	assert.Equal(t, "dgpu", adapters[i].Name)
}

func TestSelectAdapterScoresDimensionOverType(t *testing.T) {
	// 1 + 16384 beats 1000 + 8192
	adapters := []AdapterInfo{
		adapter("dgpu", 2, AdapterTypeDiscreteGPU, 8192, 0),
		adapter("llvmpipe", 3, AdapterTypeCPU, 16384, 0),
	}
	i, err := SelectAdapter(adapters, nil)
	require.NoError(t, err)
	assert.Equal(t, "llvmpipe", adapters[i].Name)
}

func TestSelectAdapterPreferredWins(t *testing.T) {
	adapters := []AdapterInfo{
		adapter("dgpu", 2, AdapterTypeDiscreteGPU, 32768, 0),
		adapter("cpu", 3, AdapterTypeCPU, 1024, 1),
	}
	preferred := uint32(3)
	i, err := SelectAdapter(adapters, &preferred)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	// unknown ids fall back to scoring
	preferred = 99
	i, err = SelectAdapter(adapters, &preferred)
	require.NoError(t, err)
	assert.Equal(t, 0, i)
}

func TestSelectAdapterSkipsAdaptersWithoutGraphics(t *testing.T) {
	adapters := []AdapterInfo{
		adapter("compute-only", 1, AdapterTypeDiscreteGPU, 32768, -1),
		adapter("igpu", 2, AdapterTypeIntegratedGPU, 1024, 0),
	}
	preferred := uint32(1)
	i, err := SelectAdapter(adapters, &preferred)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	_, err = SelectAdapter(adapters[:1], nil)
	assert.ErrorIs(t, err, ErrNoAdapter)
	_, err = SelectAdapter(nil, nil)
	assert.ErrorIs(t, err, ErrNoAdapter)
}

func TestSelectAdapterTieGoesToLast(t *testing.T) {
	adapters := []AdapterInfo{
		adapter("a", 1, AdapterTypeDiscreteGPU, 8192, 0),
		adapter("b", 2, AdapterTypeDiscreteGPU, 8192, 0),
	}
	i, err := SelectAdapter(adapters, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, i)
}
