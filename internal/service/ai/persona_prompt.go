package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/kyara/backend/internal/model/persona"
)

// BuildSystemPrompt returns the persona's configured prompt, or a basic one
// assembled from its name, title and tone when the catalog leaves it empty.
func BuildSystemPrompt(p persona.Persona) string {
	if prompt := strings.TrimSpace(p.SystemPrompt); prompt != "" {
		return prompt
	}
	return buildBasicSystemPrompt(p)
}

func buildBasicSystemPrompt(p persona.Persona) string {
	name := p.Name
	if name == "" {
		name = p.ID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "あなたは「%s」です。", name)
	if p.Title != "" {
		fmt.Fprintf(&b, "%s。", p.Title)
	}
	b.WriteString("\n\n【キャラの概要】\n")
	fmt.Fprintf(&b, "・名前：%s\n", name)
	if p.Tone != "" {
		fmt.Fprintf(&b, "・話し方：%s\n", p.Tone)
	}
	b.WriteString("\n常にキャラクターを崩さず、1〜2文で短く返答してください。")
	return b.String()
}
