package githubui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommentCommand(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		wantAction string
		wantOK     bool
	}{
		{"approve", "/merge", "approve", true},
		{"approve with extra text", "please review\n/merge\nthanks", "approve", true},
		{"cancel case insensitive", "/CANCEL", "cancel", true},
		{"no command", "looks good to me", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action, ok := ParseCommentCommand(tc.body)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantAction, action)
		})
	}
}

func TestStatusState(t *testing.T) {
	assert.Equal(t, "pending", statusState("testing"))
	assert.Equal(t, "success", statusState("merged"))
	assert.Equal(t, "failure", statusState("anything else"))
}
