package render

import (
	"strings"
	"testing"

	"github.com/microcosm-cc/bluemonday"
	"github.com/stretchr/testify/assert"
)

// visibleText strips every tag, leaving what a reader would see.
func visibleText(html string) string {
	return bluemonday.StrictPolicy().Sanitize(html)
}

func TestMarkdown_BoldAndItalic(t *testing.T) {
	md := NewMarkdown()
	out := string(md.HTML("**bold** and *italic*"))

	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<em>italic</em>")
	assert.Contains(t, out, "<p>")
	assert.NotContains(t, visibleText(out), "*")
	assert.Equal(t, "bold and italic", strings.TrimSpace(visibleText(out)))
}

func TestMarkdown_ListsAndParagraphs(t *testing.T) {
	md := NewMarkdown()
	src := "Here are the open slots:\n\n- Monday 9am\n- Tuesday **2pm**\n\nWhich works best?"
	out := string(md.HTML(src))

	assert.Contains(t, out, "<ul>")
	assert.Equal(t, 2, strings.Count(out, "<li>"))
	assert.Contains(t, out, "<strong>2pm</strong>")
	assert.Equal(t, 2, strings.Count(out, "<p>"))
}

func TestMarkdown_ScriptIsInert(t *testing.T) {
	md := NewMarkdown()
	out := string(md.HTML(`Hello <script>alert("x")</script> <img src=x onerror=alert(1)>`))

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, visibleText(out), "alert")
}

func TestMarkdown_UnsupportedSyntaxStaysText(t *testing.T) {
	md := NewMarkdown()
	out := string(md.HTML("# Title\n\n[click](javascript:alert(1)) and `code`"))

	assert.NotContains(t, out, "<h1")
	assert.NotContains(t, out, "<a ")
	assert.NotContains(t, out, "<code")
	assert.Contains(t, out, "# Title")
	assert.Contains(t, out, "[click]")
}

func TestMarkdown_IndentedLinesStayVisible(t *testing.T) {
	md := NewMarkdown()

	out := string(md.HTML("    Sure, here are your slots."))
	assert.Equal(t, "Sure, here are your slots.", strings.TrimSpace(visibleText(out)))

	out = string(md.HTML("\tTab-indented reply"))
	assert.Contains(t, visibleText(out), "Tab-indented reply")

	out = string(md.HTML("Intro\n\n    Monday 10am\n    Tuesday <b>2pm</b>\n\nThanks"))
	assert.Contains(t, out, "<p>Intro</p>")
	assert.Contains(t, out, "Monday 10am<br")
	assert.Contains(t, out, "Tuesday &lt;b&gt;2pm&lt;/b&gt;")
	assert.Contains(t, out, "<p>Thanks</p>")
	assert.NotContains(t, out, "<pre")
	assert.NotContains(t, out, "<code")
}

func TestMarkdown_HardWraps(t *testing.T) {
	md := NewMarkdown()
	out := string(md.HTML("line one\nline two"))

	assert.Contains(t, out, "<br")
	assert.Equal(t, 1, strings.Count(out, "<p>"))
}

func TestPlainText_Escapes(t *testing.T) {
	out := string(PlainText(`<b>**not bold**</b> & "quoted"`))
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, "&lt;b&gt;")
	assert.Contains(t, out, "**not bold**")
	assert.Contains(t, out, "&amp;")
}
