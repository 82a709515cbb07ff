package notify

import "testing"

func TestWebhookSignature_S6(t *testing.T) {
	// S6: body {"a":1} (exact bytes), timestamp "1700000000", secret "s3cret".
	got := webhookSignature("s3cret", "1700000000", []byte(`{"a":1}`))
	want := "1698a50bc74d1ff1db85c4e0a5297c2ad9fdba245d5737cdb789e4cc6e098940"
	if got != want {
		t.Errorf("webhookSignature() = %s, want %s", got, want)
	}
}

func TestColorToInt(t *testing.T) {
	tests := []struct {
		hex  string
		want int
	}{
		{"#3498db", 0x3498db},
		{"3498db", 0x3498db},
		{"#000000", 0},
		{"not-a-color", 0},
	}
	for _, tt := range tests {
		if got := colorToInt(tt.hex); got != tt.want {
			t.Errorf("colorToInt(%q) = %d, want %d", tt.hex, got, tt.want)
		}
	}
}
