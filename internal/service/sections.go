package service

import (
	"context"
	"errors"
	"fmt"

	"studioapi/internal/model"
	"studioapi/internal/repository"
)

// StoryRefs returns a save hook rejecting sections that add unknown stories.
// Ids already on the stored section are not rechecked, so deleting a story
// never locks the sections that still list it.
func StoryRefs(stories repository.Repository[model.Story]) SaveHook[model.Section] {
	return func(ctx context.Context, prev, sec *model.Section) error {
		known := map[string]bool{}
		if prev != nil {
			for _, id := range prev.StoryIDs {
				known[id] = true
			}
		}
		for _, id := range sec.StoryIDs {
			if known[id] {
				continue
			}
			_, err := stories.FindByID(ctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				return &model.ValidationError{Field: "story_ids", Message: fmt.Sprintf("story %q does not exist", id)}
			}
			if err != nil {
				return fmt.Errorf("check story %s: %w", id, err)
			}
		}
		return nil
	}
}

// SectionStories resolves a section's stories in section order.
type SectionStories interface {
	Stories(ctx context.Context, sectionID string) ([]model.Story, error)
}

type sectionStories struct {
	sections Content[model.Section]
	stories  repository.Repository[model.Story]
}

// NewSectionStories constructs the resolver.
func NewSectionStories(sections Content[model.Section], stories repository.Repository[model.Story]) SectionStories {
	return &sectionStories{sections: sections, stories: stories}
}

// Stories skips ids whose story has since been deleted.
func (s *sectionStories) Stories(ctx context.Context, sectionID string) ([]model.Story, error) {
	sec, err := s.sections.Get(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Story, 0, len(sec.StoryIDs))
	for _, id := range sec.StoryIDs {
		st, err := s.stories.FindByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load story %s: %w", id, err)
		}
		out = append(out, *st)
	}
	return out, nil
}
