package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultGRPCPort, cfg.Server.GRPCPort)
	assert.Equal(t, DefaultLoPPM, cfg.Render.LoPPM)
	assert.Equal(t, DefaultHiPPM, cfg.Render.HiPPM)
	assert.Equal(t, DefaultPoints, cfg.Render.Points)
	assert.Equal(t, DefaultMaxReportBytes, cfg.Analysis.MaxReportBytes)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, 0.0, cfg.Render.PaddingPPM)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Render.LoPPM = 0
	cfg.Render.HiPPM = 10
	cfg.Render.Points = 1024
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 0.0, cfg.Render.LoPPM)
	assert.Equal(t, 10.0, cfg.Render.HiPPM)
	assert.Equal(t, 1024, cfg.Render.Points)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, DefaultPaddingPPM, cfg.Render.PaddingPPM)
	assert.Equal(t, DefaultTolerancePPM, cfg.Classifier.TolerancePPM)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
}

//Personal.AI order the ending
