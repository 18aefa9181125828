package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	"github.com/saifelleuhci/kanouwood2/internal/repositories"
	"github.com/saifelleuhci/kanouwood2/internal/textcontent"
)

// TextContentProvider yields the current parsed copy. textcontent.Fetcher and
// textcontent.Watcher both satisfy it.
type TextContentProvider interface {
	Fetch(ctx context.Context) textcontent.TextContent
}

// ContentServiceDeps bundles constructor inputs for the content service.
type ContentServiceDeps struct {
	Source   textcontent.Source
	Content  TextContentProvider
	Entries  repositories.TextContentRepository
	Defaults textcontent.TextContent
	Clock    func() time.Time
	IDs      func() string
}

type contentService struct {
	source   textcontent.Source
	content  TextContentProvider
	entries  repositories.TextContentRepository
	defaults textcontent.TextContent
	clock    func() time.Time
	ids      func() string
}

// NewContentService constructs the content service. Source is the raw
// document source used for linting; Content serves parsed copy.
func NewContentService(deps ContentServiceDeps) (ContentService, error) {
	if deps.Content == nil {
		return nil, errors.New("content service: text content provider is required")
	}
	if deps.Entries == nil {
		return nil, errors.New("content service: text content repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := deps.IDs
	if ids == nil {
		ids = newULID
	}
	return &contentService{
		source:   deps.Source,
		content:  deps.Content,
		entries:  deps.Entries,
		defaults: deps.Defaults,
		clock:    func() time.Time { return clock().UTC() },
		ids:      ids,
	}, nil
}

// Current returns the parsed copy with empty known fields filled from the
// configured defaults. It never fails.
func (s *contentService) Current(ctx context.Context) textcontent.TextContent {
	return s.content.Fetch(ctx).WithFallback(s.defaults)
}

func (s *contentService) Lint(ctx context.Context) (LintReport, error) {
	if s.source == nil {
		return LintReport{}, fmt.Errorf("content: %w: no text content source configured", ErrUnavailable)
	}
	doc, err := s.source.Read(ctx)
	if err != nil {
		return LintReport{}, fmt.Errorf("content: read document: %w: %w", ErrUnavailable, err)
	}
	return LintReport{Document: doc, Diagnostics: textcontent.Lint(doc)}, nil
}

func (s *contentService) ListEntries(ctx context.Context) ([]domain.TextContentEntry, error) {
	entries, err := s.entries.List(ctx)
	if err != nil {
		return nil, translateRepositoryError("content: list entries", err)
	}
	return entries, nil
}

func (s *contentService) UpsertEntry(ctx context.Context, input TextEntryInput) (domain.TextContentEntry, error) {
	input.ID = strings.TrimSpace(input.ID)
	input.Section = strings.TrimSpace(input.Section)
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if input.Section == "" {
		return domain.TextContentEntry{}, invalid("section is required")
	}
	if input.Content == "" && input.Title == "" {
		return domain.TextContentEntry{}, invalid("title or content is required")
	}

	now := s.clock()
	entry := domain.TextContentEntry{
		ID:        input.ID,
		Section:   input.Section,
		Title:     input.Title,
		Content:   input.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if entry.ID == "" {
		entry.ID = s.ids()
	} else if existing, ok, err := s.findEntry(ctx, entry.ID); err != nil {
		return domain.TextContentEntry{}, err
	} else if ok {
		entry.CreatedAt = existing.CreatedAt
	}
	if err := s.entries.Upsert(ctx, entry); err != nil {
		return domain.TextContentEntry{}, translateRepositoryError("content: upsert entry", err)
	}
	return entry, nil
}

func (s *contentService) DeleteEntry(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("entry id is required")
	}
	if err := s.entries.Delete(ctx, id); err != nil {
		return translateRepositoryError("content: delete entry", err)
	}
	return nil
}

func (s *contentService) findEntry(ctx context.Context, id string) (domain.TextContentEntry, bool, error) {
	entries, err := s.entries.List(ctx)
	if err != nil {
		return domain.TextContentEntry{}, false, translateRepositoryError("content: list entries", err)
	}
	for _, e := range entries {
		if e.ID == id {
			return e, true, nil
		}
	}
	return domain.TextContentEntry{}, false, nil
}
