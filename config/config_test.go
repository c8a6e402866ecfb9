package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/gbdt/config"
	gbdterrors "github.com/flowforge/gbdt/pkg/errors"
)

func TestDefaultTreeConfigIsValid(t *testing.T) {
	require.NoError(t, config.DefaultTreeConfig().Validate())
}

func TestTreeConfigRejectsTooFewLeaves(t *testing.T) {
	c := config.DefaultTreeConfig()
	c.NumLeaves = 1
	err := c.Validate()
	require.Error(t, err)
	var cfgErr *gbdterrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "num_leaves", cfgErr.Field)
}

func TestTreeConfigRejectsBadFeatureFraction(t *testing.T) {
	for _, v := range []float64{0, -0.1, 1.1} {
		c := config.DefaultTreeConfig()
		c.FeatureFraction = v
		assert.Error(t, c.Validate())
	}
}

func TestDefaultNetworkConfigIsValid(t *testing.T) {
	require.NoError(t, config.DefaultNetworkConfig().Validate())
}

func TestNetworkConfigRejectsZeroMachines(t *testing.T) {
	c := config.DefaultNetworkConfig()
	c.NumMachines = 0
	assert.Error(t, c.Validate())
}
