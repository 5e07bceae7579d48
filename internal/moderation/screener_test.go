package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScreener_Screen(t *testing.T) {
	s := NewScreener()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "   ", Clean},
		{"plain news", "City council approves the new budget for NASA outreach", Clean},
		{"banned word", "What a load of bullshit", InappropriateLanguage},
		{"banned word is whole-word only", "The class assembled at noon", Clean},
		{"email", "Contact tips@example.com for details", ContactInfo},
		{"phone", "Call 555-123-4567 now", ContactInfo},
		{"repeated chars", "Soooooo good!!!!", SpamDetected},
		{"caps runs", "BREAKING NEWS TODAY WORLD SHOCK HORROR ALERT", ExcessiveCaps},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.Screen(tc.text))
		})
	}
}

func TestScreener_ScreenPost(t *testing.T) {
	s := NewScreener()

	assert.Equal(t, Clean, s.ScreenPost("Local team wins", "Read more at https://example.com/story"))
	assert.Equal(t, URLNotAllowed, s.ScreenPost("Visit www.spam.example.com", "body"))
	assert.Equal(t, InappropriateLanguage, s.ScreenPost("Local team wins", "the ref was a bastard"))
}
