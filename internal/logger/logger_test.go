package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "stocktake-admin", Level: zerolog.DebugLevel, Output: &buf})

	ctx := logg.WithFields(context.Background(), map[string]any{"department": "ER"})
	ctx = logg.WithField(ctx, "table_id", 7)
	logg.Error(ctx, "record.update", errors.New("boom"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "stocktake-admin", line["service"])
	assert.Equal(t, "ER", line["department"])
	assert.EqualValues(t, 7, line["table_id"])
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "record.update", line["message"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}
