package kb

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"oort/assistant"
)

// Entry is one question and its answer in one language.
type Entry struct {
	Lang     assistant.Language
	Question string
	Answer   string
}

// Parse reads an FAQ document. A level-1 heading naming a language
// ("# French") starts that language's section; any other level-1 heading
// is a title. Deeper headings are questions and the blocks under them up
// to the next heading form the answer. Entries before any language heading
// are English.
func Parse(src []byte) []Entry {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var entries []Entry
	lang := assistant.English
	var cur *Entry
	var answer []string

	flush := func() {
		if cur == nil {
			return
		}
		cur.Answer = strings.TrimSpace(strings.Join(answer, "\n"))
		if cur.Question != "" && cur.Answer != "" {
			entries = append(entries, *cur)
		}
		cur, answer = nil, nil
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			if cur != nil {
				if s := blockText(n, src); s != "" {
					answer = append(answer, s)
				}
			}
			continue
		}
		flush()
		title := inlineText(h, src)
		if h.Level == 1 {
			if l, err := assistant.ParseLanguage(title); err == nil && title != "" {
				lang = l
			}
			continue
		}
		cur = &Entry{Lang: lang, Question: title}
	}
	flush()
	return entries
}

// blockText flattens a block to plain text, one line per paragraph.
func blockText(n ast.Node, src []byte) string {
	var parts []string
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c.Kind() {
		case ast.KindParagraph, ast.KindTextBlock:
			if s := inlineText(c, src); s != "" {
				parts = append(parts, s)
			}
			return ast.WalkSkipChildren, nil
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(parts, "\n")
}

// inlineText drops markup (emphasis, links, code spans) and keeps the words.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
