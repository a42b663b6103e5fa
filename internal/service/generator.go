package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"scribo/internal/config"
	"scribo/internal/llm"
	"scribo/pkg/logger"
)

// ContentGenerator produces and refines assignment section content. It
// decides per chat message whether the user wants a reference-count
// change, a style change, a content rewrite, or just an answer, and only
// the first three touch the document.
type ContentGenerator struct {
	llm llm.TextGenerator
	cfg config.GeneratorConfig
}

func NewContentGenerator(textGen llm.TextGenerator, cfg config.GeneratorConfig) *ContentGenerator {
	return &ContentGenerator{
		llm: textGen,
		cfg: cfg,
	}
}

var (
	leadingNumber = regexp.MustCompile(`(?m)^\d+\.\s*`)
	metaPatterns  = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^Here is.*?:`),
		regexp.MustCompile(`(?im)^This is.*?:`),
		regexp.MustCompile(`(?im)^\*\*.*?\*\*:?`),
		regexp.MustCompile(`(?im)Please let me know.*$`),
	}
	digits = regexp.MustCompile(`\d+`)
)

// GenerateAssignment creates content for every section of a new
// document. Individual section failures degrade to placeholder text
// rather than failing the whole request.
func (g *ContentGenerator) GenerateAssignment(ctx context.Context, topic, subject string, sections []string, temperature float32) map[string]string {
	generated := make(map[string]string, len(sections))

	for i, section := range sections {
		logger.Debugf("Generating section %d/%d: %s", i+1, len(sections), section)

		var content string
		if strings.Contains(strings.ToLower(section), "reference") {
			content = g.generateReferences(ctx, topic, subject, g.cfg.ReferenceCount)
		} else {
			content = g.generateSection(ctx, section, topic, subject, temperature)
		}

		generated[section] = content
	}

	return generated
}

func (g *ContentGenerator) generateSection(ctx context.Context, section, topic, subject string, temperature float32) string {
	prompt := buildSectionPrompt(section, topic, subject, g.cfg.SectionWordLimit)

	response, err := g.llm.GenerateText(ctx, prompt, temperature, 500)
	if err != nil {
		logger.Warnf("Section %q generation failed, using fallback: %v", section, err)
		return fallbackContent(section, topic, subject)
	}

	content := cleanGeneratedText(response, section)

	words := strings.Fields(content)
	if len(words) > g.cfg.SectionWordLimit {
		content = strings.Join(words[:g.cfg.SectionWordLimit], " ") + "."
	}

	return content
}

func (g *ContentGenerator) generateReferences(ctx context.Context, topic, subject string, count int) string {
	prompt := fmt.Sprintf(`Generate exactly %d realistic academic references for a research paper on "%s" in %s.

REQUIREMENTS:
- Generate EXACTLY %d references (NO MORE, NO LESS)
- Use realistic APA citation format
- Include proper authors, years (2020-2024), titles, publishers, DOIs
- Make titles highly relevant to "%s"
- Use realistic journal/conference names in the %s field
- DO NOT number them
- DO NOT include a "References" heading

Generate EXACTLY %d references:`, count, topic, subject, count, topic, subject, count)

	response, err := g.llm.GenerateText(ctx, prompt, 0.8, count*120)
	if err != nil {
		logger.Warnf("Reference generation failed, using fallback: %v", err)
		return fallbackContent("References", topic, subject)
	}

	return leadingNumber.ReplaceAllString(strings.TrimSpace(response), "")
}

// Refinement routes a chat message by intent. Returned sections are a
// partial update: only the keys present were modified.
type Refinement struct {
	Reply           string
	UpdatedSections map[string]string
}

func (g *ContentGenerator) RefineViaChat(ctx context.Context, userPrompt string, currentSections map[string]string, topic, subject string) (*Refinement, error) {
	promptLower := strings.ToLower(userPrompt)

	if strings.Contains(promptLower, "reference") && containsAny(promptLower, []string{"want", "need", "make", "generate", "give", "add", "create"}) {
		return g.handleReferenceCountChange(ctx, userPrompt, currentSections, topic, subject)
	}

	if containsAny(promptLower, []string{"bullet", "point", "list", "numbered", "paragraph", "style", "format", "arrow"}) {
		return g.handleStyleChange(ctx, userPrompt, currentSections, topic, subject)
	}

	if containsAny(promptLower, []string{"change", "rewrite", "modify", "update", "expand", "add more", "make longer", "more details", "improve", "enhance"}) {
		return g.handleContentModification(ctx, userPrompt, currentSections, topic, subject)
	}

	return g.handleGenericChat(ctx, userPrompt, currentSections, topic, subject)
}

func (g *ContentGenerator) handleReferenceCountChange(ctx context.Context, userPrompt string, currentSections map[string]string, topic, subject string) (*Refinement, error) {
	match := digits.FindString(userPrompt)
	if match == "" {
		return &Refinement{Reply: "Please specify how many references (e.g., '20 references')."}, nil
	}
	count, _ := strconv.Atoi(match)

	logger.Infof("Regenerating references (count: %d)", count)
	refs := g.generateReferences(ctx, topic, subject, count)

	updated := make(map[string]string)
	for name := range currentSections {
		if strings.Contains(strings.ToLower(name), "reference") {
			updated[name] = refs
			break
		}
	}

	if len(updated) == 0 {
		return &Refinement{Reply: "References section not found in this document."}, nil
	}

	return &Refinement{
		Reply:           fmt.Sprintf("Generated %d references successfully.", count),
		UpdatedSections: updated,
	}, nil
}

func (g *ContentGenerator) handleStyleChange(ctx context.Context, userPrompt string, currentSections map[string]string, topic, subject string) (*Refinement, error) {
	promptLower := strings.ToLower(userPrompt)

	var instruction string
	switch {
	case strings.Contains(promptLower, "arrow"):
		instruction = "Convert to 5-7 bullet points. Each 15-20 words. Start each with '→ '. NO numbering."
	case strings.Contains(promptLower, "star"):
		instruction = "Convert to 5-7 bullet points. Each 15-20 words. Start each with '★ '. NO numbering."
	case strings.Contains(promptLower, "number"):
		instruction = "Convert to 5-7 numbered points. Each 15-20 words. Format as '1. ', '2. ', etc."
	case strings.Contains(promptLower, "paragraph"):
		instruction = "Convert to flowing paragraphs (110-150 words). Professional academic style."
	default:
		instruction = "Convert to 5-7 bullet points. Each 15-20 words. Start each with '• '. NO numbering."
	}

	targets := detectTargetSections(userPrompt, currentSections)
	updated := make(map[string]string)

	for _, name := range targets {
		if strings.Contains(strings.ToLower(name), "reference") {
			continue
		}
		content, ok := currentSections[name]
		if !ok {
			continue
		}

		transformed, err := g.transformContent(ctx, content, name, topic, subject, instruction)
		if err != nil {
			logger.Warnf("Style transform failed for %q: %v", name, err)
			continue
		}
		updated[name] = transformed
	}

	if len(updated) == 0 {
		return &Refinement{Reply: "No sections were modified."}, nil
	}

	return &Refinement{
		Reply:           fmt.Sprintf("Reformatted %d section(s).", len(updated)),
		UpdatedSections: updated,
	}, nil
}

func (g *ContentGenerator) handleContentModification(ctx context.Context, userPrompt string, currentSections map[string]string, topic, subject string) (*Refinement, error) {
	promptLower := strings.ToLower(userPrompt)

	// Expansion requests lift the word cap.
	isExpansion := containsAny(promptLower, []string{"expand", "longer", "more details", "add more", "elaborate"})
	maxWords := 150
	if isExpansion {
		maxWords = 0
	}

	targets := detectTargetSections(userPrompt, currentSections)
	updated := make(map[string]string)

	for _, name := range targets {
		if strings.Contains(strings.ToLower(name), "reference") {
			continue
		}
		content, ok := currentSections[name]
		if !ok {
			continue
		}

		rewritten, err := g.regenerateWithContext(ctx, name, content, userPrompt, topic, subject, maxWords)
		if err != nil {
			logger.Warnf("Content modification failed for %q: %v", name, err)
			continue
		}
		updated[name] = rewritten
	}

	if len(updated) == 0 {
		return &Refinement{Reply: "No sections were modified."}, nil
	}

	return &Refinement{
		Reply:           fmt.Sprintf("Updated %d section(s) as requested.", len(updated)),
		UpdatedSections: updated,
	}, nil
}

func (g *ContentGenerator) handleGenericChat(ctx context.Context, userPrompt string, currentSections map[string]string, topic, subject string) (*Refinement, error) {
	var docContext strings.Builder
	fmt.Fprintf(&docContext, "Topic: %s\nSubject: %s\n\nCurrent sections:\n", topic, subject)
	for name, content := range currentSections {
		fmt.Fprintf(&docContext, "\n%s: %s...\n", name, truncate(content, 100))
	}

	prompt := fmt.Sprintf(`%s

User question: %s

Provide a helpful response about the document or suggestions for changes.`, docContext.String(), userPrompt)

	response, err := g.llm.GenerateText(ctx, prompt, 0.7, 500)
	if err != nil {
		return nil, err
	}

	return &Refinement{Reply: strings.TrimSpace(response)}, nil
}

func (g *ContentGenerator) transformContent(ctx context.Context, content, section, topic, subject, instruction string) (string, error) {
	prompt := fmt.Sprintf(`Current content for %s (about %s in %s):

%s

Task: %s

CRITICAL:
- Maintain all key information
- Professional academic style
- Use EXACT format specified
- NO section heading
- NO meta-text

Transform now:`, section, topic, subject, content, instruction)

	response, err := g.llm.GenerateText(ctx, prompt, 0.7, 500)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

func (g *ContentGenerator) regenerateWithContext(ctx context.Context, section, current, userInstruction, topic, subject string, maxWords int) (string, error) {
	lengthReq := "Keep the length appropriate for the request."
	if maxWords > 0 {
		lengthReq = fmt.Sprintf("Write at most %d words.", maxWords)
	}

	prompt := fmt.Sprintf(`Current content for the %s section of an assignment on "%s" in %s:

%s

User request: %s

Rewrite the section to satisfy the request. %s
- Professional academic style
- NO section heading
- NO meta-text like "Here is..."
- Start directly with content

Rewritten section:`, section, topic, subject, current, userInstruction, lengthReq)

	response, err := g.llm.GenerateText(ctx, prompt, 0.7, 800)
	if err != nil {
		return "", err
	}

	content := cleanGeneratedText(response, section)
	if maxWords > 0 {
		words := strings.Fields(content)
		if len(words) > maxWords {
			content = strings.Join(words[:maxWords], " ") + "."
		}
	}
	return content, nil
}

func buildSectionPrompt(section, topic, subject string, maxWords int) string {
	baseReq := fmt.Sprintf(`CRITICAL REQUIREMENTS:
- Write EXACTLY %d words (NO MORE, NO LESS)
- Professional academic style
- Specific to "%s" in %s
- Clear, detailed, well-structured
- NO section heading
- NO meta-text like "Here is..."
- Start directly with content
- Write as FLOWING PARAGRAPHS (NOT bullet points)`, maxWords, topic, subject)

	sectionLower := strings.ToLower(section)

	var focus string
	switch {
	case containsAny(sectionLower, []string{"descriptive", "headline", "introduction", "overview"}):
		focus = fmt.Sprintf("- Introduce %s comprehensively\n- Explain importance and relevance\n- Provide context and background", topic)
	case containsAny(sectionLower, []string{"objective", "aim", "purpose", "goal"}):
		focus = "- State 3-5 clear objectives\n- Explain what this aims to achieve\n- Be specific and measurable"
	case containsAny(sectionLower, []string{"problem", "analysis", "challenge", "issue"}):
		focus = "- Identify key problems/challenges\n- Explain root causes\n- Analyze impacts"
	case containsAny(sectionLower, []string{"solution", "methodology", "approach", "implementation"}):
		focus = "- Propose concrete solutions\n- Explain the methodology step by step\n- Justify the chosen approach"
	case containsAny(sectionLower, []string{"conclusion", "summary", "result"}):
		focus = "- Summarize the key findings\n- Restate the significance\n- Suggest future directions"
	default:
		focus = fmt.Sprintf("- Cover the %s aspects of %s thoroughly", section, topic)
	}

	return fmt.Sprintf(`Write the %s section for an assignment on "%s" in %s.

%s
%s

Write EXACTLY %d words:`, section, topic, subject, baseReq, focus, maxWords)
}

// detectTargetSections figures out which sections a chat message is
// aimed at. Explicit mentions win; "all"/"everything" takes everything;
// otherwise every non-reference section is fair game.
func detectTargetSections(userPrompt string, currentSections map[string]string) []string {
	promptLower := strings.ToLower(userPrompt)

	if containsAny(promptLower, []string{"all", "everything", "entire", "whole"}) {
		names := make([]string, 0, len(currentSections))
		for name := range currentSections {
			names = append(names, name)
		}
		return names
	}

	var targets []string
	for name := range currentSections {
		if strings.Contains(promptLower, strings.ToLower(name)) {
			targets = append(targets, name)
		}
	}
	if len(targets) > 0 {
		return targets
	}

	for name := range currentSections {
		if !strings.Contains(strings.ToLower(name), "reference") {
			targets = append(targets, name)
		}
	}
	return targets
}

func cleanGeneratedText(text, section string) string {
	for _, pattern := range metaPatterns {
		text = pattern.ReplaceAllString(text, "")
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(strings.ToLower(trimmed), strings.ToLower(section)) {
		trimmed = strings.TrimSpace(trimmed[len(section):])
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, ":"))
	}

	trimmed = strings.Trim(trimmed, `"'`)
	return strings.Join(strings.Fields(trimmed), " ")
}

func fallbackContent(section, topic, subject string) string {
	return fmt.Sprintf("The %s examines %s in %s.", strings.ToLower(section), topic, subject)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
