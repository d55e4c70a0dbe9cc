package project

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// blank lines (any run of them, CRLF tolerated) separate script blocks
var scriptBlockSep = regexp.MustCompile(`\r?\n(?:\s*\r?\n)+`)

// SplitScript cuts a raw script into section blocks on blank lines,
// trimming each block and dropping empty ones.
func SplitScript(script string) []string {
	parts := scriptBlockSep.Split(script, -1)
	blocks := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			blocks = append(blocks, part)
		}
	}
	return blocks
}

// SectionsFromScript builds ordered sections for a project from a raw
// script. Every section starts open for image submission.
func SectionsFromScript(projectID, script string) []Section {
	blocks := SplitScript(script)
	sections := make([]Section, len(blocks))
	for i, content := range blocks {
		allow := true
		sections[i] = Section{
			ID:                   uuid.NewString(),
			ProjectID:            projectID,
			OrderIndex:           i,
			Content:              content,
			AllowImageSubmission: &allow,
		}
	}
	return sections
}

// JoinSectionContents reassembles the body of a script from its sections,
// separated by blank lines.
func JoinSectionContents(sections []Section) string {
	contents := make([]string, 0, len(sections))
	for _, s := range sections {
		contents = append(contents, s.Content)
	}
	return strings.Join(contents, "\n\n")
}

// BuildScript renders the full annotated script document for a project.
func BuildScript(p *Project, sections []Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	if p.Description != nil && *p.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", *p.Description)
	}
	b.WriteString("---\n\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "## セクション %d\n\n", s.OrderIndex+1)
		b.WriteString(s.Content)
		b.WriteString("\n")
		if s.ImageInstruction != nil && *s.ImageInstruction != "" {
			fmt.Fprintf(&b, "\n**画像指示**: %s\n", *s.ImageInstruction)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
