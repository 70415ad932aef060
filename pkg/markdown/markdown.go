// Package markdown renders the constrained markdown subset used in portal
// emails into HTML that mail clients display consistently.
//
// Supported: paragraphs (blank-line separated), # / ## / ### headers,
// **bold**, *italic*, [text](url) links; single newlines inside a paragraph
// become <br>. The input is NOT escaped: callers must not feed untrusted
// markdown without separate sanitization.
package markdown

import (
	"regexp"
	"strings"
)

var (
	h3Re     = regexp.MustCompile(`^###\s+(.*)$`)
	h2Re     = regexp.MustCompile(`^##\s+(.*)$`)
	h1Re     = regexp.MustCompile(`^#\s+(.*)$`)
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
	linkRe   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	blankRe  = regexp.MustCompile(`\n\s*\n`)
)

// Render converts markdown to email HTML. It is a total function: any input
// yields some output and it never fails.
func Render(md string) string {
	md = strings.ReplaceAll(md, "\r\n", "\n")

	var blocks []string
	for _, block := range blankRe.Split(md, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		blocks = append(blocks, renderBlock(block))
	}

	return strings.Join(blocks, "\n")
}

// renderBlock turns one blank-line-delimited block into HTML. Header lines
// become <hN> elements on their own; runs of ordinary lines become a single
// <p> with <br> between lines, so a header never ends up inside a paragraph.
func renderBlock(block string) string {
	var out []string
	var para []string

	flush := func() {
		if len(para) == 0 {
			return
		}
		out = append(out, "<p>"+strings.Join(para, "<br>")+"</p>")
		para = nil
	}

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case h3Re.MatchString(line):
			flush()
			out = append(out, h3Re.ReplaceAllString(inline(line), "<h3>$1</h3>"))
		case h2Re.MatchString(line):
			flush()
			out = append(out, h2Re.ReplaceAllString(inline(line), "<h2>$1</h2>"))
		case h1Re.MatchString(line):
			flush()
			out = append(out, h1Re.ReplaceAllString(inline(line), "<h1>$1</h1>"))
		default:
			para = append(para, inline(line))
		}
	}
	flush()

	return strings.Join(out, "\n")
}

func inline(s string) string {
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	s = linkRe.ReplaceAllString(s, `<a href="$2">$1</a>`)
	return s
}
