// Package aggregate builds notification payloads from domain events
// (templates) and collapses a batch of same-typed history entries into one
// digest payload (aggregators), grounded on the teacher's per-event
// Mattermost attachment builders but generalized to a channel-agnostic shape.
package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MaxListItems caps how many items an aggregated digest lists by name before
// falling back to an "and N more" suffix.
const MaxListItems = 5

// MaxTitleLength caps how long an individual content title may be before
// truncation with an ellipsis.
const MaxTitleLength = 40

// Payload is the channel-agnostic content a template or aggregator produces.
type Payload struct {
	Title   string
	Message string
	Color   string
	URL     string
	Fields  map[string]string
}

// healthOrder ranks connector health statuses from worst to best so an
// aggregator can classify a transition as an improvement or a degradation.
var healthOrder = map[string]int{
	"offline":   0,
	"unhealthy": 1,
	"degraded":  2,
	"healthy":   3,
}

func truncateTitle(s string) string {
	r := []rune(s)
	if len(r) <= MaxTitleLength {
		return s
	}
	return string(r[:MaxTitleLength-1]) + "…"
}

// joinWithMore lists up to MaxListItems items, appending "and N more" for
// the remainder.
func joinWithMore(items []string) string {
	if len(items) <= MaxListItems {
		return strings.Join(items, ", ")
	}
	shown := items[:MaxListItems]
	return fmt.Sprintf("%s, and %d more", strings.Join(shown, ", "), len(items)-MaxListItems)
}

func getString(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

func getInt(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// BuildPayload maps one (eventType, eventData) pair to a Payload using the
// fixed template for that event type.
func BuildPayload(eventType string, data map[string]any, now time.Time) Payload {
	switch eventType {
	case "sweep_started":
		connector := getString(data, "connectorName")
		count := getInt(data, "itemCount")
		return Payload{
			Title:   "Search sweep started",
			Message: fmt.Sprintf("Sweep started on %s: %d item(s) queued for search.", connector, count),
			Color:   "#3498db",
			Fields:  map[string]string{"Connector": connector, "Items": fmt.Sprintf("%d", count)},
		}
	case "sweep_completed":
		connector := getString(data, "connectorName")
		success := getInt(data, "successCount")
		failed := getInt(data, "failureCount")
		return Payload{
			Title:   "Search sweep completed",
			Message: fmt.Sprintf("Sweep completed on %s: %d succeeded, %d failed.", connector, success, failed),
			Color:   "#2ecc71",
			Fields: map[string]string{
				"Connector": connector,
				"Succeeded": fmt.Sprintf("%d", success),
				"Failed":    fmt.Sprintf("%d", failed),
			},
		}
	case "search_success":
		title := truncateTitle(getString(data, "contentTitle"))
		connector := getString(data, "connectorName")
		return Payload{
			Title:   "Search succeeded",
			Message: fmt.Sprintf("Found a release for %q via %s.", title, connector),
			Color:   "#27ae60",
			Fields:  map[string]string{"Title": title, "Connector": connector},
		}
	case "search_exhausted":
		title := truncateTitle(getString(data, "contentTitle"))
		attempts := getInt(data, "attemptCount")
		return Payload{
			Title:   "Search exhausted",
			Message: fmt.Sprintf("Gave up searching for %q after %d attempt(s).", title, attempts),
			Color:   "#e74c3c",
			Fields:  map[string]string{"Title": title, "Attempts": fmt.Sprintf("%d", attempts)},
		}
	case "connector_health_changed":
		connector := getString(data, "connectorName")
		from := getString(data, "previousStatus")
		to := getString(data, "newStatus")
		verb := "changed"
		if healthOrder[to] > healthOrder[from] {
			verb = "improved"
		} else if healthOrder[to] < healthOrder[from] {
			verb = "degraded"
		}
		return Payload{
			Title:   "Connector health changed",
			Message: fmt.Sprintf("%s health %s: %s → %s.", connector, verb, from, to),
			Color:   "#f39c12",
			Fields:  map[string]string{"Connector": connector, "From": from, "To": to},
		}
	case "sync_completed":
		connector := getString(data, "connectorName")
		count := getInt(data, "itemsSynced")
		return Payload{
			Title:   "Sync completed",
			Message: fmt.Sprintf("%s: synced %d item(s).", connector, count),
			Color:   "#9b59b6",
			Fields:  map[string]string{"Connector": connector, "Items": fmt.Sprintf("%d", count)},
		}
	case "sync_failed":
		connector := getString(data, "connectorName")
		reason := getString(data, "error")
		return Payload{
			Title:   "Sync failed",
			Message: fmt.Sprintf("%s: sync failed — %s", connector, reason),
			Color:   "#e74c3c",
			Fields:  map[string]string{"Connector": connector, "Error": reason},
		}
	case "app_started":
		version := getString(data, "version")
		return Payload{
			Title:   "Orchestrator started",
			Message: fmt.Sprintf("Orchestrator started (version %s).", version),
			Color:   "#1abc9c",
		}
	case "update_available":
		version := getString(data, "version")
		return Payload{
			Title:   "Update available",
			Message: fmt.Sprintf("A new version is available: %s.", version),
			Color:   "#f1c40f",
			URL:     getString(data, "releaseURL"),
		}
	default:
		return Payload{
			Title:   eventType,
			Message: fmt.Sprintf("Event %s occurred at %s.", eventType, now.UTC().Format(time.RFC3339)),
			Color:   "#7289da",
		}
	}
}

// HistoryLike is the minimal shape an aggregator needs from a notification
// history entry, kept independent of the notify package to avoid an import
// cycle (the dispatcher depends on aggregate, not the reverse).
type HistoryLike struct {
	EventType string
	EventData map[string]any
	CreatedAt time.Time
}

// AggregateDigest collapses entries (all assumed to share one eventType)
// into a single digest Payload.
func AggregateDigest(eventType string, entries []HistoryLike) Payload {
	if len(entries) == 0 {
		return Payload{Title: eventType, Message: "No events."}
	}
	if len(entries) == 1 {
		return BuildPayload(eventType, entries[0].EventData, entries[0].CreatedAt)
	}

	switch eventType {
	case "connector_health_changed":
		return aggregateHealthChanges(entries)
	case "search_success":
		return aggregateTitledList(entries, "search_success", "Search successes", "succeeded")
	case "search_exhausted":
		return aggregateTitledList(entries, "search_exhausted", "Searches exhausted", "were exhausted")
	default:
		base := BuildPayload(eventType, entries[0].EventData, entries[len(entries)-1].CreatedAt)
		base.Message = fmt.Sprintf("%s (%d events)", base.Message, len(entries))
		return base
	}
}

func aggregateTitledList(entries []HistoryLike, _ string, heading, verb string) Payload {
	titles := make([]string, 0, len(entries))
	for _, e := range entries {
		titles = append(titles, truncateTitle(getString(e.EventData, "contentTitle")))
	}
	color := "#27ae60"
	if verb == "were exhausted" {
		color = "#e74c3c"
	}
	return Payload{
		Title:   heading,
		Message: fmt.Sprintf("%d item(s) %s: %s", len(entries), verb, joinWithMore(titles)),
		Color:   color,
	}
}

func aggregateHealthChanges(entries []HistoryLike) Payload {
	var improvements, degradations []string
	for _, e := range entries {
		connector := getString(e.EventData, "connectorName")
		from := getString(e.EventData, "previousStatus")
		to := getString(e.EventData, "newStatus")
		line := fmt.Sprintf("%s (%s → %s)", connector, from, to)
		if healthOrder[to] > healthOrder[from] {
			improvements = append(improvements, line)
		} else if healthOrder[to] < healthOrder[from] {
			degradations = append(degradations, line)
		}
	}
	sort.Strings(improvements)
	sort.Strings(degradations)

	var parts []string
	if len(improvements) > 0 {
		parts = append(parts, fmt.Sprintf("Improved: %s", joinWithMore(improvements)))
	}
	if len(degradations) > 0 {
		parts = append(parts, fmt.Sprintf("Degraded: %s", joinWithMore(degradations)))
	}
	color := "#f39c12"
	if len(degradations) > len(improvements) {
		color = "#e74c3c"
	} else if len(improvements) > 0 && len(degradations) == 0 {
		color = "#2ecc71"
	}
	return Payload{
		Title:   "Connector health changed",
		Message: strings.Join(parts, "\n"),
		Color:   color,
	}
}
