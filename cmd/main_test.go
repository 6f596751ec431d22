package main

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	require.NoError(t, validateConfig(defaultConfig()))

	tests := []struct {
		scenario string
		update   func(c *config)
	}{
		{
			scenario: "zero world size",
			update:   func(c *config) { c.WorldSize = 0 },
		},
		{
			scenario: "negative cell size",
			update:   func(c *config) { c.CellSize = -16 },
		},
		{
			scenario: "world size not multiple of cell size",
			update:   func(c *config) { c.CellSize = 100 },
		},
		{
			scenario: "zero max entity id",
			update:   func(c *config) { c.MaxEntityID = 0 },
		},
		{
			scenario: "max entity id too big",
			update:   func(c *config) { c.MaxEntityID = math.MaxUint32 + 1 },
		},
		{
			scenario: "more bodies than ids",
			update:   func(c *config) { c.BodyCount = c.MaxEntityID + 1 },
		},
		{
			scenario: "zero body size",
			update:   func(c *config) { c.BodySize = 0 },
		},
		{
			scenario: "body size too big",
			update:   func(c *config) { c.BodySize = c.WorldSize / 4 },
		},
		{
			scenario: "negative body speed",
			update:   func(c *config) { c.BodySpeed = -1 },
		},
		{
			scenario: "zero frame duration",
			update:   func(c *config) { c.FrameDuration = 0 },
		},
		{
			scenario: "negative log summary interval",
			update:   func(c *config) { c.LogSummaryInterval = -time.Second },
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			conf := defaultConfig()
			test.update(&conf)
			require.Error(t, validateConfig(conf))
		})
	}
}
