package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCoins(t *testing.T) {
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, parseCoins("btc, eth;SOL btc"))
	assert.Empty(t, parseCoins(" , ;"))
}
