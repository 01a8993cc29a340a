package hotlist

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"
)

// sanitizeTitle strips any markup that leaked through the crawler's page
// extraction and restores entity-escaped text. Nothing beyond that: titles
// are the dedup key, and stronger normalization (trimming, punctuation
// folding) would silently merge items the platforms publish as distinct.
func (svc *Service) sanitizeTitle(title string) string {
	return html.UnescapeString(svc.sanitizer.Sanitize(title))
}

// validateItem rejects malformed crawl entries before any write.
func (svc *Service) validateItem(item *CrawlItem) error {
	if strings.TrimSpace(item.PlatformID) == "" {
		return fmt.Errorf("%w: missing platform_id", ErrInvalidInput)
	}
	if item.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidInput)
	}
	if utf8.RuneCountInString(item.Title) > svc.config.MaxTitleLen {
		return fmt.Errorf("%w: title exceeds %d runes", ErrInvalidInput, svc.config.MaxTitleLen)
	}
	if item.Rank < 1 {
		return fmt.Errorf("%w: rank %d, want >= 1", ErrInvalidInput, item.Rank)
	}
	return nil
}
