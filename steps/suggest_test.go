package steps

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tomatool/cuke/feature"
)

func TestSuggestRanksByCloseness(t *testing.T) {
	patterns := []string{
		"I add {int} and {int}",
		"the result should be {int}",
		"a calculator",
	}

	got := Suggest("the result should be 5", patterns, 2)
	require.NotEmpty(t, got)
	require.Equal(t, "the result should be {int}", got[0])
}

func TestSuggestNothingClose(t *testing.T) {
	got := Suggest("zzzzzz", []string{"a completely unrelated pattern"}, 3)
	require.Empty(t, got)
}

func TestSuggestEmptyPatterns(t *testing.T) {
	require.Empty(t, Suggest("anything", nil, 3))
}

func TestSnippet(t *testing.T) {
	r := NewRegistry()
	snippet := r.Snippet(&feature.Step{
		Keyword:     feature.Then,
		KeywordText: "Then",
		Text:        "the result should be 5",
	})

	require.True(t, strings.HasPrefix(snippet, "r.Then("), "snippet: %s", snippet)
	require.Contains(t, snippet, "{int}")
	require.Contains(t, snippet, "errors.ErrPending")
}

func TestCtxAttachments(t *testing.T) {
	c := NewCtx(context.Background(), nil, nil, 0)
	c.Attach("log", "text/plain", []byte("hello"))
	c.AttachURL("report", "text/html", "https://example.com/report")

	atts := c.Attachments()
	require.Len(t, atts, 2)
	require.Equal(t, "log", atts[0].Name)
	require.Equal(t, []byte("hello"), atts[0].Body)
	require.Equal(t, "https://example.com/report", atts[1].URL)
}
