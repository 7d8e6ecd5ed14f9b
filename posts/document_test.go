package posts_test

import (
	"strings"
	"testing"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/posts"
	"github.com/stretchr/testify/require"
)

const editorOutput = `{
  "time": 1718000000000,
  "version": "2.29.0",
  "blocks": [
    {"id": "a1", "type": "header", "data": {"text": "Eating for energy", "level": 1}},
    {"id": "a2", "type": "paragraph", "data": {"text": "Start with <b>breakfast</b>.<script>alert(1)</script>"}},
    {"id": "a3", "type": "list", "data": {"style": "ordered", "items": ["Oats", "Berries &amp; yoghurt"]}},
    {"id": "a4", "type": "image", "data": {"url": "/static/img/bowl.jpg", "caption": "A \"good\" bowl"}},
    {"id": "a5", "type": "delimiter", "data": {}}
  ]
}`

func TestParseDocument(t *testing.T) {
	t.Run("valid editor output", func(t *testing.T) {
		doc, err := posts.ParseDocument([]byte(editorOutput))
		require.NoError(t, err)
		require.Len(t, doc.Blocks, 5)
		require.Equal(t, posts.BlockHeader, doc.Blocks[0].Type)
		require.Equal(t, []string{"Oats", "Berries &amp; yoghurt"}, doc.Blocks[2].Data.Items)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := posts.ParseDocument([]byte("  "))
		require.ErrorIs(t, err, siteerrors.ErrInvalidDocument)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := posts.ParseDocument([]byte(`{"blocks": [`))
		require.ErrorIs(t, err, siteerrors.ErrInvalidDocument)
	})

	t.Run("unknown block type", func(t *testing.T) {
		_, err := posts.ParseDocument([]byte(`{"blocks":[{"type":"embed","data":{}}]}`))
		require.ErrorIs(t, err, siteerrors.ErrInvalidDocument)
	})

	t.Run("javascript image url", func(t *testing.T) {
		_, err := posts.ParseDocument([]byte(`{"blocks":[{"type":"image","data":{"url":"javascript:alert(1)"}}]}`))
		require.ErrorIs(t, err, siteerrors.ErrInvalidDocument)
	})

	t.Run("header level out of range", func(t *testing.T) {
		_, err := posts.ParseDocument([]byte(`{"blocks":[{"type":"header","data":{"text":"x","level":9}}]}`))
		require.ErrorIs(t, err, siteerrors.ErrInvalidDocument)
	})
}

func TestRenderHTML(t *testing.T) {
	doc, err := posts.ParseDocument([]byte(editorOutput))
	require.NoError(t, err)

	out := string(doc.RenderHTML())
	require.Contains(t, out, "<h2>Eating for energy</h2>")
	require.Contains(t, out, "<b>breakfast</b>")
	require.NotContains(t, out, "<script>")
	require.Contains(t, out, "<ol>")
	require.Contains(t, out, "<li>Oats</li>")
	require.Contains(t, out, `<img src="/static/img/bowl.jpg" alt="A &#34;good&#34; bowl"`)
	require.Contains(t, out, "<hr>")
}

func TestPlainTextAndExcerpt(t *testing.T) {
	doc, err := posts.ParseDocument([]byte(editorOutput))
	require.NoError(t, err)

	require.Equal(t, "Eating for energy\nStart with breakfast.\nOats\nBerries & yoghurt", doc.PlainText())

	short := doc.Excerpt(1000)
	require.Equal(t, "Eating for energy Start with breakfast. Oats Berries & yoghurt", short)

	cut := doc.Excerpt(20)
	require.True(t, strings.HasSuffix(cut, "…"))
	require.LessOrEqual(t, len([]rune(cut)), 21)
}

func TestDocumentJSON(t *testing.T) {
	require.Equal(t, `{"blocks":[]}`, posts.Document{}.JSON())

	doc, err := posts.ParseDocument([]byte(editorOutput))
	require.NoError(t, err)
	again, err := posts.ParseDocument([]byte(doc.JSON()))
	require.NoError(t, err)
	require.Equal(t, doc, again)
}
