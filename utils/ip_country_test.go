package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCountryName(t *testing.T) {
	assert.Equal(t, "Germany", NormalizeCountryName("Germany-Berlin"))
	assert.Equal(t, "France", NormalizeCountryName("France – Paris"))
	assert.Equal(t, "Japan", NormalizeCountryName("Japan Tokyo"))
	assert.Equal(t, "Brazil", NormalizeCountryName("  Brazil  "))
	assert.Equal(t, "", NormalizeCountryName("   "))
}

func TestIsPrivateIP(t *testing.T) {
	assert.True(t, IsPrivateIP("127.0.0.1"))
	assert.True(t, IsPrivateIP("10.1.2.3"))
	assert.True(t, IsPrivateIP("192.168.0.1"))
	assert.False(t, IsPrivateIP("8.8.8.8"))
	assert.False(t, IsPrivateIP("not-an-ip"))
}
