package scraper

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rageshhub/youtube-email-scraper/internal/browser"
)

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

// ExtractEmails returns the distinct email addresses found in text,
// sorted. Duplicates are collapsed by exact string match.
func ExtractEmails(text string) []string {
	seen := map[string]struct{}{}
	for _, m := range emailPattern.FindAllString(text, -1) {
		seen[m] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// ExtractPageEmails scans the current page for email addresses, both in
// the rendered text and in the raw markup.
func ExtractPageEmails(ctx context.Context, session browser.Session) ([]string, error) {
	source, err := session.PageSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page source: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return ExtractEmails(source + " " + doc.Text()), nil
}
