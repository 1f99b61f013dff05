// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package markdown renders theme descriptions for the catalog: HTML for
// the detail view and a short plain-text teaser for list cards.
package markdown

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Raw HTML is never passed through: descriptions are shown to every
// customer browsing the catalog.
var (
	rich = goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough, extension.Linkify, extension.Typographer),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	plain = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))
)

// ToHTML renders source as HTML. Blank input yields "".
func ToHTML(source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := rich.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Summary strips the markup from source and collapses it to one line of
// at most limit runes, cut at a word boundary and ending in "…" when
// shortened. limit <= 0 means no limit.
func Summary(source string, limit int) string {
	src := []byte(source)
	doc := plain.Parser().Parse(text.NewReader(src))

	var sb strings.Builder
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				sb.Write(n.Segment.Value(src))
				if n.SoftLineBreak() || n.HardLineBreak() {
					sb.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				sb.Write(n.Value)
			}
		default:
			if !entering && n.Type() == ast.TypeBlock {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})

	out := strings.Join(strings.Fields(sb.String()), " ")
	if limit <= 0 || utf8.RuneCountInString(out) <= limit {
		return out
	}
	runes := []rune(out)[:limit]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:.-") + "…"
}
