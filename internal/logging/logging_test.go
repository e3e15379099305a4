package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumechat/internal/domain"
)

func TestSetupWritesStructuredLines(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	var buf bytes.Buffer
	require.NoError(t, Setup("info", false, &buf))

	log.Debug().Msg("hidden")
	log.Info().Int("chunks", 2).Msg("session ready")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "session ready", line["message"])
	assert.Equal(t, float64(2), line["chunks"])
	assert.Equal(t, "info", line["level"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	err := Setup("loud", false, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
