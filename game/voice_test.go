package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUtterance(t *testing.T) {
	for in, want := range map[string]int{
		"42":                   42,
		"I think 17":           17,
		"fifty two":            52,
		"Fifty-Two":            52,
		"twenty":               20,
		"seven":                7,
		"zero":                 0,
		"one hundred":          100,
		"hundred":              100,
		"ninety nine":          99,
		"150":                  100,
		"two hundred":          100,
		"99999999999999999999": 100,
	} {
		got, ok := ParseUtterance(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "banana", "hello there", "and"} {
		_, ok := ParseUtterance(in)
		assert.False(t, ok, in)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-5))
	assert.Equal(t, 0, Clamp(0))
	assert.Equal(t, 55, Clamp(55))
	assert.Equal(t, 100, Clamp(100))
	assert.Equal(t, 100, Clamp(101))
}

func TestCapturePollsOnceForItsKey(t *testing.T) {
	c := NewCapture("0-0", 101)

	_, ok := c.Poll("1-1")
	assert.False(t, ok, "a different key never yields")

	v, ok := c.Poll("0-0")
	assert.True(t, ok)
	assert.Equal(t, 100, v)

	_, ok = c.Poll("0-0")
	assert.False(t, ok, "a consumed capture never yields again")
}

func TestTranscriptCapture(t *testing.T) {
	assert.Nil(t, NewTranscriptCapture("0-0", "no idea"))

	var nilCapture *Capture
	_, ok := nilCapture.Poll("0-0")
	assert.False(t, ok)

	c := NewTranscriptCapture("0-0", "sixty three")
	v, ok := c.Poll("0-0")
	assert.True(t, ok)
	assert.Equal(t, 63, v)
}
