package utils

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00"},
		{9.99, "00:09"},
		{10, "00:10"},
		{59.5, "00:59"},
		{60, "01:00"},
		{125.7, "02:05"},
		{3599, "59:59"},
		{3600, "60:00"},
		{-4, "00:00"},
		{math.NaN(), "00:00"},
		{math.Inf(1), "00:00"},
		{1 << 53, "150119987579016:32"},
		{9.3e18, "150119987579016:32"},
		{1e20, "150119987579016:32"},
		{math.MaxFloat64, "150119987579016:32"},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.seconds); got != tt.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestJSONRoundTripThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")

	in := map[string]int{"a": 1}
	if err := WriteJSON(path, in); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if !FileExists(path) {
		t.Fatal("WriteJSON did not create the file")
	}

	var out struct {
		A int `json:"a"`
	}
	if err := ReadJSON(path, &out); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if out.A != 1 {
		t.Errorf("A = %d, want 1", out.A)
	}
}

func TestReadJSON_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.json")
	if err := os.WriteFile(path, []byte(`{"a":1,"b":2}`), 0o644); err != nil {
		t.Fatal(err)
	}

	var out struct {
		A int `json:"a"`
	}
	if err := ReadJSON(path, &out); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp4", "a.mkv", "notes.txt", "sub/c.mp4"} {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := FindFiles(dir, "*.mp4, *.mkv")
	if err != nil {
		t.Fatalf("FindFiles failed: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.mkv"),
		filepath.Join(dir, "b.mp4"),
		filepath.Join(dir, "sub", "c.mp4"),
	}
	if len(files) != len(want) {
		t.Fatalf("FindFiles returned %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}
