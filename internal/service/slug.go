package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/unicode/norm"

	"github.com/windy-novel-api/internal/repository"
)

const (
	// fallbackSlugBase is used when a title normalizes to nothing, e.g.
	// titles written entirely in a non-Latin script
	fallbackSlugBase = "untitled-story"

	// maxSlugAttempts bounds the uniqueness probe; the original platform
	// looped forever, which only matters if the probe itself is broken
	maxSlugAttempts = 1000
)

// ErrSlugExhausted is returned when no collision-free slug could be found
// within the attempt limit
var ErrSlugExhausted = errors.New("slug namespace exhausted")

var (
	invalidSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespaceRuns   = regexp.MustCompile(`\s+`)
	hyphenRuns       = regexp.MustCompile(`-{2,}`)
)

// SlugAllocator derives unique, URL-safe slugs for stories
type SlugAllocator struct {
	stories repository.StoryRepository
}

// NewSlugAllocator creates a slug allocator backed by the story collection
func NewSlugAllocator(stories repository.StoryRepository) *SlugAllocator {
	return &SlugAllocator{stories: stories}
}

// Normalize turns a free-text title into a slug base: lowercase, diacritics
// stripped, anything outside [a-z0-9 -] removed, whitespace and hyphen runs
// collapsed to single hyphens
func Normalize(title string) string {
	s := strings.ToLower(title)

	// NFD decomposition, then drop the combining marks. Scripts without
	// separable base letters lose everything here and land on the
	// fallback base.
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}

	s = invalidSlugChars.ReplaceAllString(b.String(), "")
	s = whitespaceRuns.ReplaceAllString(strings.TrimSpace(s), "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Allocate returns the first collision-free slug for the title. When
// updating an existing story, excludeID keeps the story's own slug from
// counting as a collision, so an unchanged title keeps its slug.
func (a *SlugAllocator) Allocate(ctx context.Context, title string, excludeID primitive.ObjectID) (string, error) {
	base := Normalize(title)
	if base == "" {
		base = fallbackSlugBase
	}

	candidate := base
	for i := 1; i <= maxSlugAttempts; i++ {
		taken, err := a.stories.SlugTaken(ctx, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("slug uniqueness probe failed: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	return "", fmt.Errorf("%w: no free slug for %q after %d attempts", ErrSlugExhausted, base, maxSlugAttempts)
}
