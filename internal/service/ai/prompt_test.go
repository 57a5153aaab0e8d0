package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/lgt-bot/backend/internal/model/chat"
)

func TestSystemPromptCarriesConversationScalars(t *testing.T) {
	prompt := SystemPrompt(Request{Stage: chat.StageEmail, UserName: "Ada"})

	assert.Contains(t, prompt, "LGT (Limitless Global Technologies) Bot")
	assert.Contains(t, prompt, "OUTPUT_START:")
	assert.Contains(t, prompt, `start your message with "#preview"`)
	assert.True(t, strings.HasSuffix(prompt, "Current conversation stage: email. User's name: Ada. User's email: ."))
}

func TestComposeTurnCuesBot(t *testing.T) {
	req := Request{Stage: chat.StageName, Prompt: "The user's name is Ada. Ask for their email in a fun way."}
	turn := ComposeTurn(req)

	assert.True(t, strings.HasPrefix(turn, SystemPrompt(req)))
	assert.True(t, strings.HasSuffix(turn, "\n\nUser: The user's name is Ada. Ask for their email in a fun way.\n\nLGT Bot:"))
}
