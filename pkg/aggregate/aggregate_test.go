package aggregate

import (
	"strings"
	"testing"
	"time"
)

func TestBuildPayload_SearchSuccess(t *testing.T) {
	data := map[string]any{"contentTitle": "Some Show S01E01", "connectorName": "sonarr-main"}
	p := BuildPayload("search_success", data, time.Now())
	if p.Color != "#27ae60" {
		t.Errorf("Color = %s, want #27ae60", p.Color)
	}
	if !strings.Contains(p.Message, "sonarr-main") {
		t.Errorf("Message = %q, want to mention connector", p.Message)
	}
}

func TestTruncateTitle(t *testing.T) {
	long := strings.Repeat("a", 50)
	got := truncateTitle(long)
	if len([]rune(got)) != MaxTitleLength {
		t.Errorf("truncateTitle length = %d, want %d", len([]rune(got)), MaxTitleLength)
	}
	short := "short title"
	if got := truncateTitle(short); got != short {
		t.Errorf("truncateTitle(%q) = %q, want unchanged", short, got)
	}
}

func TestJoinWithMore(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}
	got := joinWithMore(items)
	want := "a, b, c, d, e, and 2 more"
	if got != want {
		t.Errorf("joinWithMore() = %q, want %q", got, want)
	}

	small := []string{"a", "b"}
	if got := joinWithMore(small); got != "a, b" {
		t.Errorf("joinWithMore(small) = %q, want %q", got, "a, b")
	}
}

func TestAggregateDigest_HealthChanges(t *testing.T) {
	entries := []HistoryLike{
		{EventType: "connector_health_changed", EventData: map[string]any{
			"connectorName": "radarr-1", "previousStatus": "healthy", "newStatus": "degraded",
		}},
		{EventType: "connector_health_changed", EventData: map[string]any{
			"connectorName": "sonarr-1", "previousStatus": "unhealthy", "newStatus": "healthy",
		}},
	}
	p := AggregateDigest("connector_health_changed", entries)
	if !strings.Contains(p.Message, "Improved") || !strings.Contains(p.Message, "Degraded") {
		t.Errorf("Message = %q, want both Improved and Degraded sections", p.Message)
	}
}

func TestAggregateDigest_SingleEntryDelegatesToTemplate(t *testing.T) {
	entries := []HistoryLike{
		{EventType: "search_success", EventData: map[string]any{"contentTitle": "X", "connectorName": "c1"}, CreatedAt: time.Now()},
	}
	single := AggregateDigest("search_success", entries)
	direct := BuildPayload("search_success", entries[0].EventData, entries[0].CreatedAt)
	if single.Message != direct.Message {
		t.Errorf("single-entry digest should match the direct template output")
	}
}

func TestAggregateDigest_Empty(t *testing.T) {
	p := AggregateDigest("search_success", nil)
	if p.Message != "No events." {
		t.Errorf("AggregateDigest(nil) = %q, want the empty-set message", p.Message)
	}
}
