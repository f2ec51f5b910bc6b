package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/ternarybob/scholia/internal/interfaces"
)

func TestConvertMessagesToGemini(t *testing.T) {
	messages := []interfaces.Message{
		{Role: "system", Content: "You are a study assistant."},
		{Role: "user", Content: "What is mitosis?"},
		{Role: "assistant", Content: "Cell division."},
		{Role: "user", Content: "Name the phases."},
	}

	contents, systemText, err := convertMessagesToGemini(messages)
	require.NoError(t, err)

	assert.Equal(t, "You are a study assistant.", systemText)
	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, genai.RoleUser, contents[2].Role)
	assert.Equal(t, "What is mitosis?", contents[0].Parts[0].Text)
}

func TestConvertMessagesToGeminiKeepsFirstSystemMessage(t *testing.T) {
	messages := []interfaces.Message{
		{Role: "system", Content: "first instruction"},
		{Role: "system", Content: "second instruction"},
		{Role: "user", Content: "hello"},
	}

	contents, systemText, err := convertMessagesToGemini(messages)
	require.NoError(t, err)
	assert.Equal(t, "first instruction", systemText)
	assert.Len(t, contents, 1)
}

func TestConvertMessagesToGeminiRejectsEmptyInput(t *testing.T) {
	_, _, err := convertMessagesToGemini(nil)
	assert.Error(t, err)
}

func TestConvertMessagesToGeminiRequiresUserMessage(t *testing.T) {
	messages := []interfaces.Message{
		{Role: "system", Content: "instructions only"},
	}

	_, _, err := convertMessagesToGemini(messages)
	assert.Error(t, err)
}
