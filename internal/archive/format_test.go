package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleArchive() *Archive {
	v := 0.91
	return &Archive{
		Version:   FormatVersion,
		CreatedAt: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC),
		Runs: []Run{{
			ID:      "20261016-080000-3f2a9c1e",
			Metrics: []Metric{{Variable: "streamflow", Period: "calib", Name: "NSE", Value: &v}},
		}},
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "a.hra")
	if err := Write(path, sampleArchive()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if h.RunCount != 1 || h.MetricCount != 1 || !h.Compressed {
		t.Errorf("header = %+v", h)
	}
	if !strings.HasPrefix(h.Checksum, "sha256:") {
		t.Errorf("checksum = %q", h.Checksum)
	}

	a, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(a.Runs) != 1 || *a.Runs[0].Metrics[0].Value != 0.91 {
		t.Errorf("archive = %+v", a)
	}
	if err := VerifyChecksum(path); err != nil {
		t.Errorf("VerifyChecksum() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("archive mode = %o, want 600", perm)
	}
}

func TestCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.hra")
	if err := Write(path, sampleArchive()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xff
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	if err := VerifyChecksum(path); err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("VerifyChecksum() error = %v, want checksum mismatch", err)
	}
	if _, err := Read(path); err == nil {
		t.Error("Read() should reject a corrupt archive")
	}
}

func TestReadHeaderRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"not json", "hello\n"},
		{"wrong version", `{"version":9,"checksum":"sha256:00"}` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "x.hra")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := ReadHeader(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}
