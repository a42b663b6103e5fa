package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribo/internal/config"
)

// fakeTextGen records every prompt and answers via respond, or with a
// fixed reply when respond is nil.
type fakeTextGen struct {
	prompts []string
	reply   string
	err     error
	respond func(prompt string) (string, error)
}

func (f *fakeTextGen) GenerateText(_ context.Context, prompt string, _ float32, _ int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.respond != nil {
		return f.respond(prompt)
	}
	return f.reply, f.err
}

func testGenConfig() config.GeneratorConfig {
	return config.GeneratorConfig{
		SectionWordLimit: 110,
		DefaultWordCount: 3000,
		ReferenceCount:   8,
	}
}

func sampleSections() map[string]string {
	return map[string]string{
		"Objective":  "The objective text.",
		"Solution":   "The solution text.",
		"References": "Smith, J. (2022). A Paper.",
	}
}

func TestGenerateAssignment(t *testing.T) {
	fake := &fakeTextGen{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "academic references") {
			return "1. Smith, J. (2022). First.\n2. Jones, K. (2023). Second.", nil
		}
		return "Generated body text.", nil
	}}
	g := NewContentGenerator(fake, testGenConfig())

	got := g.GenerateAssignment(context.Background(), "Cloud Computing", "CS", []string{"Objective", "References"}, 0.7)

	require.Len(t, got, 2)
	assert.Equal(t, "Generated body text.", got["Objective"])
	// Reference numbering is stripped.
	assert.Equal(t, "Smith, J. (2022). First.\nJones, K. (2023). Second.", got["References"])
	assert.Len(t, fake.prompts, 2)
}

func TestGenerateAssignmentFallsBackPerSection(t *testing.T) {
	fake := &fakeTextGen{err: errors.New("llm down")}
	g := NewContentGenerator(fake, testGenConfig())

	got := g.GenerateAssignment(context.Background(), "IoT", "EE", []string{"Objective", "Conclusion"}, 0.7)

	require.Len(t, got, 2)
	assert.Contains(t, got["Objective"], "IoT")
	assert.Contains(t, got["Conclusion"], "EE")
}

func TestGenerateAssignmentCapsSectionLength(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("word ", 40))
	fake := &fakeTextGen{reply: long}
	cfg := testGenConfig()
	cfg.SectionWordLimit = 10
	g := NewContentGenerator(fake, cfg)

	got := g.GenerateAssignment(context.Background(), "Topic", "Subject", []string{"Objective"}, 0.7)

	words := strings.Fields(got["Objective"])
	assert.Len(t, words, 10)
	assert.True(t, strings.HasSuffix(got["Objective"], "."))
}

func TestRefineReferenceCountChange(t *testing.T) {
	fake := &fakeTextGen{reply: "Doe, A. (2021). One.\nRoe, B. (2022). Two."}
	g := NewContentGenerator(fake, testGenConfig())

	ref, err := g.RefineViaChat(context.Background(), "I want 12 references", sampleSections(), "Topic", "Subject")
	require.NoError(t, err)

	assert.Equal(t, "Generated 12 references successfully.", ref.Reply)
	require.Len(t, ref.UpdatedSections, 1)
	assert.Contains(t, ref.UpdatedSections["References"], "Doe, A.")
	// Only the references prompt went to the model.
	require.Len(t, fake.prompts, 1)
	assert.Contains(t, fake.prompts[0], "exactly 12")
}

func TestRefineReferenceCountWithoutNumber(t *testing.T) {
	fake := &fakeTextGen{reply: "unused"}
	g := NewContentGenerator(fake, testGenConfig())

	ref, err := g.RefineViaChat(context.Background(), "give me references", sampleSections(), "Topic", "Subject")
	require.NoError(t, err)

	assert.Contains(t, ref.Reply, "specify how many")
	assert.Empty(t, ref.UpdatedSections)
	assert.Empty(t, fake.prompts)
}

func TestRefineStyleChangeTargetsNamedSection(t *testing.T) {
	fake := &fakeTextGen{reply: "• point one\n• point two"}
	g := NewContentGenerator(fake, testGenConfig())

	ref, err := g.RefineViaChat(context.Background(), "convert the objective to bullet points", sampleSections(), "Topic", "Subject")
	require.NoError(t, err)

	assert.Equal(t, "Reformatted 1 section(s).", ref.Reply)
	require.Len(t, ref.UpdatedSections, 1)
	assert.Equal(t, "• point one\n• point two", ref.UpdatedSections["Objective"])
}

func TestRefineStyleChangeSkipsReferences(t *testing.T) {
	fake := &fakeTextGen{reply: "→ reformatted"}
	g := NewContentGenerator(fake, testGenConfig())

	ref, err := g.RefineViaChat(context.Background(), "use arrow bullets", sampleSections(), "Topic", "Subject")
	require.NoError(t, err)

	assert.NotContains(t, ref.UpdatedSections, "References")
	assert.Contains(t, ref.UpdatedSections, "Objective")
	assert.Contains(t, ref.UpdatedSections, "Solution")
	for _, prompt := range fake.prompts {
		assert.Contains(t, prompt, "→")
	}
}

func TestRefineContentModification(t *testing.T) {
	fake := &fakeTextGen{reply: "Rewritten solution text with extra depth."}
	g := NewContentGenerator(fake, testGenConfig())

	ref, err := g.RefineViaChat(context.Background(), "rewrite the solution", sampleSections(), "Topic", "Subject")
	require.NoError(t, err)

	assert.Equal(t, "Updated 1 section(s) as requested.", ref.Reply)
	require.Len(t, ref.UpdatedSections, 1)
	assert.Equal(t, "Rewritten solution text with extra depth.", ref.UpdatedSections["Solution"])
}

func TestRefineExpansionLiftsWordCap(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("detail ", 200))
	fake := &fakeTextGen{reply: long}
	g := NewContentGenerator(fake, testGenConfig())

	ref, err := g.RefineViaChat(context.Background(), "expand the solution", sampleSections(), "Topic", "Subject")
	require.NoError(t, err)

	require.Contains(t, ref.UpdatedSections, "Solution")
	assert.Len(t, strings.Fields(ref.UpdatedSections["Solution"]), 200)
}

func TestRefineGenericChat(t *testing.T) {
	fake := &fakeTextGen{reply: "The document covers three sections."}
	g := NewContentGenerator(fake, testGenConfig())

	ref, err := g.RefineViaChat(context.Background(), "what does this document cover?", sampleSections(), "Topic", "Subject")
	require.NoError(t, err)

	assert.Equal(t, "The document covers three sections.", ref.Reply)
	assert.Empty(t, ref.UpdatedSections)
	require.Len(t, fake.prompts, 1)
	assert.Contains(t, fake.prompts[0], "Topic: Topic")
}

func TestRefineGenericChatError(t *testing.T) {
	fake := &fakeTextGen{err: errors.New("llm down")}
	g := NewContentGenerator(fake, testGenConfig())

	_, err := g.RefineViaChat(context.Background(), "what does this document cover?", sampleSections(), "Topic", "Subject")
	assert.Error(t, err)
}

func TestDetectTargetSections(t *testing.T) {
	sections := sampleSections()

	all := detectTargetSections("reformat everything", sections)
	assert.Len(t, all, 3)

	named := detectTargetSections("rewrite the solution please", sections)
	assert.Equal(t, []string{"Solution"}, named)

	implicit := detectTargetSections("make it better", sections)
	assert.Len(t, implicit, 2)
	assert.NotContains(t, implicit, "References")
}

func TestCleanGeneratedText(t *testing.T) {
	cleaned := cleanGeneratedText("Here is the content:\nObjective: The actual text here.", "Objective")
	assert.Equal(t, "The actual text here.", cleaned)

	quoted := cleanGeneratedText(`"Quoted content."`, "Solution")
	assert.Equal(t, "Quoted content.", quoted)
}
