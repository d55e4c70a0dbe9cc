package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitScript(t *testing.T) {
	blocks := SplitScript("First block\n\nSecond block\nstill second\n\n\n\nThird block")

	assert.Equal(t, []string{"First block", "Second block\nstill second", "Third block"}, blocks)
}

func TestSplitScript_CRLFAndPadding(t *testing.T) {
	blocks := SplitScript("  First  \r\n\r\nSecond\r\n\r\n\r\n")

	assert.Equal(t, []string{"First", "Second"}, blocks)
}

func TestSplitScript_Empty(t *testing.T) {
	assert.Empty(t, SplitScript(""))
	assert.Empty(t, SplitScript("   \n\n  \n\n"))
}

func TestSectionsFromScript(t *testing.T) {
	sections := SectionsFromScript("p1", "Knead the dough\n\nRest one hour")

	assert.Len(t, sections, 2)
	for i, s := range sections {
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, "p1", s.ProjectID)
		assert.Equal(t, i, s.OrderIndex)
		assert.True(t, s.AllowsSubmission())
	}
	assert.Equal(t, "Knead the dough", sections[0].Content)
	assert.Equal(t, "Rest one hour", sections[1].Content)
}

func TestJoinSectionContents(t *testing.T) {
	joined := JoinSectionContents([]Section{
		{Content: "Knead the dough"},
		{Content: "Rest one hour"},
	})

	assert.Equal(t, "Knead the dough\n\nRest one hour", joined)
	assert.Equal(t, "", JoinSectionContents(nil))
}

func TestJoinSectionContents_RoundTrip(t *testing.T) {
	script := "Knead the dough\n\nRest one hour\n\nBake at 220"

	sections := SectionsFromScript("p1", script)

	assert.Equal(t, script, JoinSectionContents(sections))
}

func TestBuildScript(t *testing.T) {
	desc := "A rustic loaf"
	instruction := "flour-dusted crust"
	project := &Project{ID: "p1", Title: "Bread", Description: &desc}
	sections := []Section{
		{OrderIndex: 0, Content: "Knead the dough", ImageInstruction: &instruction},
		{OrderIndex: 1, Content: "Rest one hour"},
	}

	script := BuildScript(project, sections)

	assert.Equal(t, "# Bread\n\nA rustic loaf\n\n---\n\n"+
		"## セクション 1\n\nKnead the dough\n\n**画像指示**: flour-dusted crust\n\n"+
		"## セクション 2\n\nRest one hour\n", script)
}

func TestBuildScript_NoDescriptionNoSections(t *testing.T) {
	script := BuildScript(&Project{Title: "Bread"}, nil)

	assert.Equal(t, "# Bread\n\n---\n", script)
}
