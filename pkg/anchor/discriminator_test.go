package anchor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDiscriminator(t *testing.T) {
	assert.Equal(t, []byte{172, 30, 71, 244, 97, 6, 1, 237}, GetDiscriminator("global", "graduate_token_to_orca"))
	assert.Equal(t, []byte{102, 6, 61, 18, 1, 218, 235, 234}, GetDiscriminator("global", "buy"))
	assert.Equal(t, []byte{63, 149, 209, 12, 225, 128, 99, 9}, GetDiscriminator("account", "Whirlpool"))
}

func TestHasDiscriminator(t *testing.T) {
	data := append([]byte{63, 149, 209, 12, 225, 128, 99, 9}, 0xff, 0xee)

	assert.True(t, HasDiscriminator(data, "account", "Whirlpool"))
	assert.False(t, HasDiscriminator(data, "account", "Position"))
	assert.False(t, HasDiscriminator(data[:4], "account", "Whirlpool"))
}
