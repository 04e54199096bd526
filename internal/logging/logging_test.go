package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestSetupWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "warn")
	assert.Equal(t, zerolog.WarnLevel, log.Logger.GetLevel())

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetupWriterFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "loud")
	assert.Equal(t, zerolog.InfoLevel, log.Logger.GetLevel())

	SetupWriter(&buf, "")
	assert.Equal(t, zerolog.InfoLevel, log.Logger.GetLevel())
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "debug")
	l := Component("collector")
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), "collector")
}
