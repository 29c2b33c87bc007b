package handlers

import "testing"

func TestParseByteRange(t *testing.T) {
	const size = 100

	tests := []struct {
		header    string
		wantStart int64
		wantEnd   int64
		wantErr   bool
	}{
		{"bytes=0-9", 0, 9, false},
		{"bytes=50-", 50, 99, false},
		{"bytes=90-500", 90, 99, false},
		{"bytes=-10", 90, 99, false},
		{"bytes=-500", 0, 99, false},
		{"bytes=100-", 0, 0, true},
		{"bytes=20-10", 0, 0, true},
		{"bytes=0-1,5-6", 0, 0, true},
		{"items=0-1", 0, 0, true},
		{"bytes=abc-", 0, 0, true},
		{"bytes=-0", 0, 0, true},
		{"bytes=5", 0, 0, true},
	}

	for _, tt := range tests {
		start, end, err := parseByteRange(tt.header, size)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseByteRange(%q) expected error, got %d-%d", tt.header, start, end)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseByteRange(%q) unexpected error: %v", tt.header, err)
			continue
		}
		if start != tt.wantStart || end != tt.wantEnd {
			t.Errorf("parseByteRange(%q) = %d-%d, want %d-%d", tt.header, start, end, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestVideoContentType(t *testing.T) {
	tests := map[string]string{
		"match.mp4":  "video/mp4",
		"match.WEBM": "video/webm",
		"match.mov":  "video/quicktime",
		"match.bin":  "video/mp4",
	}
	for path, want := range tests {
		if got := videoContentType(path); got != want {
			t.Errorf("videoContentType(%q) = %q, want %q", path, got, want)
		}
	}
}
