package services_test

import (
	"testing"

	"qaforum_backend/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestParseMentions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"none", "no mentions here", nil},
		{"single", "thanks @alice!", []string{"alice"}},
		{"order and dedup", "@bob and @alice, again @bob", []string{"bob", "alice"}},
		{"underscore and digits", "ping @user_42.", []string{"user_42"}},
		{"email-like", "mail me at a@b", []string{"b"}},
		{"bare at", "@ alone", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.ParseMentions(tt.content))
		})
	}
}
