package util

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name     string
		bytes    int64
		expected string
	}{
		{"empty cache", 0, "0 B"},
		{"entry manifest", 734, "734 B"},
		{"1KB boundary", 1024, "1.0 KB"},
		{"short doc entry", 5632, "5.5 KB"},
		{"typical doc entry", 47104, "46.0 KB"},
		{"large doc entry", 2621440, "2.5 MB"},
		{"full cache directory", 3221225472, "3.0 GB"},
		{"terabytes", 2199023255552, "2.0 TB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatBytes(tt.bytes)
			if result != tt.expected {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, result, tt.expected)
			}
		})
	}
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		time     time.Time
		expected string
	}{
		{"entry fetched seconds ago", now.Add(-45 * time.Second), "just now"},
		{"minute-old entry", now.Add(-1 * time.Minute), "1 minute ago"},
		{"entry from this session", now.Add(-9 * time.Minute), "9 minutes ago"},
		{"hour-old entry", now.Add(-1 * time.Hour), "1 hour ago"},
		{"entry from this morning", now.Add(-6 * time.Hour), "6 hours ago"},
		{"entry from yesterday", now.Add(-24 * time.Hour), "1 day ago"},
		{"entry near clean cutoff", now.Add(-5 * 24 * time.Hour), "5 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatTimeAgo(tt.time)
			if result != tt.expected {
				t.Errorf("FormatTimeAgo() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestFormatTimeAgoStaleEntry(t *testing.T) {
	// Entries older than a week show an absolute date
	stale := time.Now().Add(-30 * 24 * time.Hour)
	result := FormatTimeAgo(stale)

	expected := stale.Format("Jan 2, 15:04")
	if result != expected {
		t.Errorf("FormatTimeAgo() for stale entry = %q, want %q", result, expected)
	}
}

// Benchmarks
func BenchmarkFormatBytes(b *testing.B) {
	sizes := []int64{0, 734, 5632, 47104, 2621440}
	for i := 0; i < b.N; i++ {
		for _, size := range sizes {
			FormatBytes(size)
		}
	}
}

func BenchmarkFormatTimeAgo(b *testing.B) {
	ages := []time.Time{
		time.Now().Add(-45 * time.Second),
		time.Now().Add(-9 * time.Minute),
		time.Now().Add(-6 * time.Hour),
		time.Now().Add(-5 * 24 * time.Hour),
	}
	for i := 0; i < b.N; i++ {
		for _, age := range ages {
			FormatTimeAgo(age)
		}
	}
}
