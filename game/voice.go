/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// VoiceSource is the server side of the voice capture widget. Poll yields a
// value captured under key, or false when nothing is ready, the capture failed
// or it belongs to another listening context.
type VoiceSource interface {
	Poll(key string) (int, bool)
}

// Clamp forces v into the guessable range.
func Clamp(v int) int {
	return max(MinSecret, min(MaxSecret, v))
}

// Capture is a single resolved recognition result, tagged with the capture
// key the widget was mounted with. It yields at most once.
type Capture struct {
	Key   string
	Value int

	mu       sync.Mutex
	consumed bool
}

// NewCapture builds a capture from an already parsed value.
func NewCapture(key string, value int) *Capture {
	return &Capture{Key: key, Value: Clamp(value)}
}

// NewTranscriptCapture parses a raw transcript. It returns nil when no number
// can be extracted, which polls as absent.
func NewTranscriptCapture(key, transcript string) *Capture {
	v, ok := ParseUtterance(transcript)
	if !ok {
		return nil
	}

	return NewCapture(key, v)
}

func (c *Capture) Poll(key string) (int, bool) {
	if c == nil {
		return 0, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.consumed || c.Key != key {
		return 0, false
	}
	c.consumed = true

	return Clamp(c.Value), true
}

var (
	digits = regexp.MustCompile(`\d+`)

	ones = map[string]int{
		"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
		"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
		"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
		"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18,
		"nineteen": 19,
	}

	tens = map[string]int{
		"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
		"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	}
)

// ParseUtterance extracts a number from a spoken phrase such as "42",
// "fifty two" or "one hundred". Digits win over number words. The result is
// clamped to [0,100].
func ParseUtterance(s string) (int, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(strings.ToLower(s), "-", " "))

	if m := digits.FindString(s); m != "" {
		v, err := strconv.Atoi(m)
		if err != nil {
			// too many digits to fit, which is still "more than a hundred"
			return MaxSecret, true
		}
		return Clamp(v), true
	}

	words := strings.Fields(s)

	current, sawZero := 0, false
	for _, w := range words {
		switch {
		case w == "and":
		case w == "zero":
			sawZero = true
		case ones[w] > 0:
			current += ones[w]
		case tens[w] > 0:
			current += tens[w]
		case w == "hundred":
			if current == 0 {
				current = 1
			}
			current *= 100
		}
	}

	if current == 0 && !sawZero {
		return 0, false
	}

	return Clamp(current), true
}
