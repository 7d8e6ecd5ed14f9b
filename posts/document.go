package posts

import (
	"encoding/json"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
)

// BlockType names a block produced by the editor
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeader    BlockType = "header"
	BlockList      BlockType = "list"
	BlockQuote     BlockType = "quote"
	BlockImage     BlockType = "image"
	BlockDelimiter BlockType = "delimiter"
)

const (
	ListOrdered   = "ordered"
	ListUnordered = "unordered"

	maxBlocks = 500
)

// Document is the block model saved by the rich-text editor
type Document struct {
	Time    int64   `json:"time,omitempty"`
	Blocks  []Block `json:"blocks"`
	Version string  `json:"version,omitempty"`
}

type Block struct {
	ID   string    `json:"id,omitempty"`
	Type BlockType `json:"type"`
	Data BlockData `json:"data"`
}

// BlockData is the union of every block's fields. Text, Items and Caption may hold
// inline markup (bold, italic, links) and are sanitised on render.
type BlockData struct {
	Text    string   `json:"text,omitempty"`
	Level   int      `json:"level,omitempty"`
	Style   string   `json:"style,omitempty"`
	Items   []string `json:"items,omitempty"`
	URL     string   `json:"url,omitempty"`
	Caption string   `json:"caption,omitempty"`
}

var (
	inlinePolicy = newInlinePolicy()
	stripPolicy  = bluemonday.StrictPolicy()
)

func newInlinePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "mark", "code", "br")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// ParseDocument decodes and validates editor output
func ParseDocument(raw []byte) (Document, error) {
	var doc Document
	if len(strings.TrimSpace(string(raw))) == 0 {
		return doc, siteerrors.Wrapf(siteerrors.ErrInvalidDocument, "empty document")
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, siteerrors.Wrapf(siteerrors.ErrInvalidDocument, "decode: %v", err)
	}
	if err := doc.Validate(); err != nil {
		return doc, err
	}
	return doc, nil
}

// JSON encodes the document for storage or for seeding the editor
func (d Document) JSON() string {
	if d.Blocks == nil {
		d.Blocks = []Block{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return `{"blocks":[]}`
	}
	return string(b)
}

// Validate checks every block is of a known type and well formed
func (d Document) Validate() error {
	if len(d.Blocks) > maxBlocks {
		return siteerrors.Wrapf(siteerrors.ErrInvalidDocument, "too many blocks (%d)", len(d.Blocks))
	}
	for i, b := range d.Blocks {
		if err := b.validate(); err != nil {
			return siteerrors.Wrapf(siteerrors.ErrInvalidDocument, "block %d: %v", i, err)
		}
	}
	return nil
}

func (b Block) validate() error {
	switch b.Type {
	case BlockParagraph, BlockQuote:
		return nil
	case BlockHeader:
		if b.Data.Level < 1 || b.Data.Level > 6 {
			return fmt.Errorf("header level %d out of range", b.Data.Level)
		}
	case BlockList:
		if b.Data.Style != ListOrdered && b.Data.Style != ListUnordered {
			return fmt.Errorf("unknown list style %q", b.Data.Style)
		}
	case BlockImage:
		if !safeImageURL(b.Data.URL) {
			return fmt.Errorf("image url %q not allowed", b.Data.URL)
		}
	case BlockDelimiter:
		return nil
	default:
		return fmt.Errorf("unknown block type %q", b.Type)
	}
	return nil
}

func safeImageURL(raw string) bool {
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "https" || u.Scheme == "http"
}

// RenderHTML renders the read-only view of the document
func (d Document) RenderHTML() template.HTML {
	var sb strings.Builder
	for _, b := range d.Blocks {
		switch b.Type {
		case BlockParagraph:
			sb.WriteString("<p>" + inlinePolicy.Sanitize(b.Data.Text) + "</p>\n")
		case BlockHeader:
			level := b.Data.Level
			if level < 2 {
				level = 2 // the page title is the only h1
			}
			if level > 6 {
				level = 6
			}
			fmt.Fprintf(&sb, "<h%d>%s</h%d>\n", level, inlinePolicy.Sanitize(b.Data.Text), level)
		case BlockList:
			tag := "ul"
			if b.Data.Style == ListOrdered {
				tag = "ol"
			}
			sb.WriteString("<" + tag + ">\n")
			for _, item := range b.Data.Items {
				sb.WriteString("<li>" + inlinePolicy.Sanitize(item) + "</li>\n")
			}
			sb.WriteString("</" + tag + ">\n")
		case BlockQuote:
			sb.WriteString("<blockquote><p>" + inlinePolicy.Sanitize(b.Data.Text) + "</p>")
			if b.Data.Caption != "" {
				sb.WriteString("<cite>" + html.EscapeString(plain(b.Data.Caption)) + "</cite>")
			}
			sb.WriteString("</blockquote>\n")
		case BlockImage:
			if !safeImageURL(b.Data.URL) {
				continue
			}
			caption := html.EscapeString(plain(b.Data.Caption))
			fmt.Fprintf(&sb, "<figure><img src=\"%s\" alt=\"%s\" loading=\"lazy\">", html.EscapeString(b.Data.URL), caption)
			if caption != "" {
				sb.WriteString("<figcaption>" + caption + "</figcaption>")
			}
			sb.WriteString("</figure>\n")
		case BlockDelimiter:
			sb.WriteString("<hr>\n")
		}
	}
	return template.HTML(sb.String())
}

// PlainText returns the document text without markup, one block per line
func (d Document) PlainText() string {
	var lines []string
	for _, b := range d.Blocks {
		switch b.Type {
		case BlockParagraph, BlockHeader, BlockQuote:
			lines = append(lines, plain(b.Data.Text))
		case BlockList:
			for _, item := range b.Data.Items {
				lines = append(lines, plain(item))
			}
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Excerpt returns up to n runes of plain text, cut on a word boundary
func (d Document) Excerpt(n int) string {
	text := strings.Join(strings.Fields(d.PlainText()), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	cut := string(runes[:n])
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

func plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}
