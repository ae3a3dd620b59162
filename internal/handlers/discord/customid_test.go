package discord

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomID_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		id   CustomID
		want string
	}{
		{name: "action only", id: CustomID{Action: componentMove}, want: "trpg:move"},
		{name: "with target", id: CustomID{Action: componentAct, Target: "rest"}, want: "trpg:act:rest"},
		{name: "target with colons", id: CustomID{Action: componentAct, Target: "explore:search-well"}, want: "trpg:act:explore:search-well"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := tt.id.Encode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, encoded)

			parsed, err := ParseCustomID(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.id, parsed)
		})
	}
}

func TestCustomID_TooLong(t *testing.T) {
	_, err := CustomID{Action: componentAct, Target: strings.Repeat("x", MaxCustomIDLength)}.Encode()
	assert.ErrorContains(t, err, "exceeds maximum length")
}

func TestParseCustomID_Rejects(t *testing.T) {
	for _, id := range []string{"", "trpg", "trpg:", "character_create:race:elf"} {
		_, err := ParseCustomID(id)
		assert.Error(t, err, id)
	}
}
