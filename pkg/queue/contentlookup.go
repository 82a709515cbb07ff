package queue

import (
	"context"

	"github.com/quietloop/orchestrator/pkg/priority"
	"github.com/quietloop/orchestrator/pkg/registry"
)

// BasicContentLookup derives priority.Input entirely from fields already
// present on registry.Entry. It stands in for an external discovery-sync
// process (air-date calendars, specials numbering, prior-download state)
// that is out of scope for this system; ContentDate is left unset, which
// priority.Calculate treats as "unknown" rather than "overdue", and
// SeasonNumber is taken from the entry's SeasonID.
type BasicContentLookup struct{}

// NewBasicContentLookup creates a BasicContentLookup.
func NewBasicContentLookup() *BasicContentLookup {
	return &BasicContentLookup{}
}

// PriorityInput implements ContentLookup.
func (BasicContentLookup) PriorityInput(ctx context.Context, entry registry.Entry) (priority.Input, error) {
	var seasonNumber *int
	if entry.SeasonID != nil {
		n := int(*entry.SeasonID)
		seasonNumber = &n
	}

	return priority.Input{
		SearchType:           priority.SearchType(entry.SearchType),
		ContentDate:          nil,
		DiscoveredAt:         entry.CreatedAt,
		UserPriorityOverride: 0,
		AttemptCount:         entry.AttemptCount,
		SeasonNumber:         seasonNumber,
		WasDownloaded:        false,
		FileLostAt:           nil,
	}, nil
}
