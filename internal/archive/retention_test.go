package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func infos(n int, size int64, start time.Time) []Info {
	out := make([]Info, n)
	for i := range out {
		out[i] = Info{
			Path:      filepath.Join("/a", string(rune('z'-i))),
			Size:      size,
			CreatedAt: start.Add(-time.Duration(i) * 24 * time.Hour),
		}
	}
	return out
}

func TestPolicies(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	all := infos(5, 40, now)

	tests := []struct {
		name   string
		policy RetentionPolicy
		want   int
	}{
		{"count", &CountPolicy{MaxCount: 2}, 2},
		{"count above total", &CountPolicy{MaxCount: 9}, 5},
		{"age", &AgePolicy{MaxAge: 36 * time.Hour, now: func() time.Time { return now }}, 2},
		{"size", &SizePolicy{MaxTotalBytes: 100}, 2},
		{"size keeps newest", &SizePolicy{MaxTotalBytes: 1}, 1},
		{"any", AnyPolicy{&CountPolicy{MaxCount: 1}, &SizePolicy{MaxTotalBytes: 120}}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Apply(all); len(got) != tt.want {
				t.Errorf("kept %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestNewPolicy(t *testing.T) {
	p, err := NewPolicy(0, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if c, ok := p.(*CountPolicy); !ok || c.MaxCount != 10 {
		t.Errorf("default policy = %#v", p)
	}

	p, err = NewPolicy(3, "30d", "")
	if err != nil {
		t.Fatal(err)
	}
	if combined, ok := p.(AnyPolicy); !ok || len(combined) != 2 {
		t.Errorf("combined policy = %#v", p)
	}

	if _, err := NewPolicy(0, "soon", ""); err == nil {
		t.Error("expected error for invalid age")
	}
	if _, err := NewPolicy(0, "", "lots"); err == nil {
		t.Error("expected error for invalid size")
	}
}

func TestListAndApplyRetention(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"hydrorun-archive-20261001-080000.000.hra",
		"hydrorun-archive-20261008-080000.000.hra",
		"hydrorun-archive-20261015-080000.000.hra",
	}
	for _, n := range names {
		if err := Write(filepath.Join(dir, n), sampleArchive()); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	list, err := List(dir)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("listed %d archives, want 3", len(list))
	}
	if filepath.Base(list[0].Path) != names[2] {
		t.Errorf("newest = %s, want %s", filepath.Base(list[0].Path), names[2])
	}
	if !list[0].Valid || list[0].Runs != 1 {
		t.Errorf("info = %+v", list[0])
	}

	deleted, err := ApplyRetention(dir, &CountPolicy{MaxCount: 1})
	if err != nil {
		t.Fatalf("ApplyRetention() error = %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted %v", deleted)
	}
	if _, err := os.Stat(filepath.Join(dir, names[2])); err != nil {
		t.Error("newest archive removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("unrelated file removed")
	}

	if list, err := List(filepath.Join(dir, "missing")); err != nil || list != nil {
		t.Errorf("List(missing) = %v, %v", list, err)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"720h", 720 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"", 0, true},
		{"d", 0, true},
		{"3y", 0, true},
		{"-2d", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"100MB", 100 << 20, false},
		{"1gb", 1 << 30, false},
		{"500 KB", 500 << 10, false},
		{"12B", 12, false},
		{"", 0, true},
		{"12", 0, true},
		{"xMB", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSize(%q) = %v, %v", tt.in, got, err)
		}
	}
}
