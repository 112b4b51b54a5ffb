package knowledge

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairytale-chat/internal/models"
)

func TestBuildEffectivePrompt_PlainPersonaUnchanged(t *testing.T) {
	inj := NewInjector(Default())
	chef := models.Persona{ID: "chef", SystemPrompt: "You are Chef Marco."}

	assert.Equal(t, "You are Chef Marco.", inj.BuildEffectivePrompt(chef, ""))
	assert.Equal(t, "Be brief.", inj.BuildEffectivePrompt(chef, "Be brief."))
}

func TestBuildEffectivePrompt_BakerGetsKnowledgeBase(t *testing.T) {
	inj := NewInjector(Default())
	baker := models.Persona{ID: "baker", SystemPrompt: "You are a baker.", KnowledgeBase: true}

	prompt := inj.BuildEffectivePrompt(baker, "")

	assert.True(t, strings.HasPrefix(prompt, "You are a baker.\n\n"))
	assert.Contains(t, prompt, "You created and run Fairytale Farms.")
	assert.Contains(t, prompt, "KNOWLEDGE_BASE (JSON):")
	assert.Contains(t, prompt, `"Peanut Butter"`)
	assert.Contains(t, prompt, "suggest close alternatives")
	assert.Contains(t, prompt, "ask for any missing fields")
	assert.Contains(t, prompt, "ALWAYS keep the warm Fairytale Farms voice.")
}

func TestBuildEffectivePrompt_BakerOverrideKeepsKnowledgeBase(t *testing.T) {
	inj := NewInjector(Default())
	baker := models.Persona{ID: "baker", SystemPrompt: "default", KnowledgeBase: true}

	prompt := inj.BuildEffectivePrompt(baker, "Custom baker voice")

	assert.True(t, strings.HasPrefix(prompt, "Custom baker voice"))
	assert.NotContains(t, prompt, "default")
	assert.Contains(t, prompt, "KNOWLEDGE_BASE (JSON):")
}

func TestBuildEffectivePrompt_BlankOverrideIgnored(t *testing.T) {
	inj := NewInjector(Default())
	p := models.Persona{SystemPrompt: "base"}
	assert.Equal(t, "base", inj.BuildEffectivePrompt(p, "   "))
}

func TestJSON_RoundTrips(t *testing.T) {
	var decoded Base
	require.NoError(t, json.Unmarshal([]byte(Default().JSON()), &decoded))
	assert.Equal(t, Default(), decoded)
}

func TestHasCookie(t *testing.T) {
	kb := Default()
	assert.True(t, kb.HasCookie("snickerdoodle"))
	assert.False(t, kb.HasCookie("Macaron"))
}
