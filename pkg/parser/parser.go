package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// blockSelector lists the elements that become one text line each.
const blockSelector = "h1,h2,h3,h4,h5,h6,p,li,pre,blockquote,td,th,dt,dd"

type Parser struct{}

// ToLines reduces an HTML document to plain text, one line per block
// element. go-readability isolates the main article first; when it cannot,
// or the article has no text, the whole document is used.
func (p *Parser) ToLines(rawURL, html string) ([]string, error) {
	if article, err := p.readable(rawURL, html); err == nil {
		if lines, err := blockLines(article); err == nil && len(lines) > 0 {
			return lines, nil
		}
	}
	return blockLines(html)
}

func blockLines(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script,style,noscript").Remove()

	var lines []string
	doc.Find(blockSelector).Each(func(i int, s *goquery.Selection) {
		// nested blocks (li > p) are emitted by the innermost element only
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		if goquery.NodeName(s) == "pre" {
			lines = append(lines, preLines(s.Text())...)
			return
		}
		if text := normalizeText(s.Text()); text != "" {
			lines = append(lines, text)
		}
	})

	if len(lines) == 0 {
		// no block markup at all, fall back to the body text
		for _, line := range strings.Split(doc.Find("body").Text(), "\n") {
			if text := normalizeText(line); text != "" {
				lines = append(lines, text)
			}
		}
	}

	return lines, nil
}

func (p *Parser) readable(rawURL, html string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	readabilityParser := readability.NewParser()
	article, err := readabilityParser.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return "", err
	}
	return article.Content, nil
}

// normalizeText collapses a block's whitespace and line breaks into single spaces.
func normalizeText(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

// preLines keeps preformatted text line by line.
func preLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
