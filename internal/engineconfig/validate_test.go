package engineconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTieredUnknownCodecFormatIsFatal(t *testing.T) {
	cfg := Default()
	cfg.Codec.Format = "rle"
	result := cfg.ValidateTiered()
	require.True(t, result.HasFatals())
}

func TestValidateTieredUnknownProtocolIsFatal(t *testing.T) {
	cfg := Default()
	cfg.Transport.Protocol = "udp"
	result := cfg.ValidateTiered()
	require.True(t, result.HasFatals())
}

func TestValidateTieredOutOfRangeQualityIsFatal(t *testing.T) {
	cfg := Default()
	cfg.Codec.Quality = 150
	result := cfg.ValidateTiered()
	require.True(t, result.HasFatals())
}

func TestValidateTieredFPSClampingIsWarning(t *testing.T) {
	cfg := Default()
	cfg.Capture.TargetFPS = 0
	result := cfg.ValidateTiered()
	require.False(t, result.HasFatals())
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, 1, cfg.Capture.TargetFPS)
}

func TestValidateTieredHighFPSClampingIsWarning(t *testing.T) {
	cfg := Default()
	cfg.Capture.TargetFPS = 1000
	result := cfg.ValidateTiered()
	require.False(t, result.HasFatals())
	assert.Equal(t, 240, cfg.Capture.TargetFPS)
}

func TestValidateTieredMTUClampingIsWarning(t *testing.T) {
	cfg := Default()
	cfg.Transport.MTU = 0
	result := cfg.ValidateTiered()
	require.False(t, result.HasFatals())
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, 1200, cfg.Transport.MTU)
}

func TestValidateTieredUnknownLogLevelIsWarning(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	result := cfg.ValidateTiered()
	require.False(t, result.HasFatals())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestDefaultConfigPassesValidation(t *testing.T) {
	cfg := Default()
	result := cfg.ValidateTiered()
	assert.False(t, result.HasFatals())
	assert.Empty(t, result.Warnings)
}
