package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	filePrefix = "hydrorun-archive-"
	fileSuffix = ".hra"
)

// Info describes an archive file for listing and retention.
type Info struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	Runs      int       `json:"runs"`
	// Valid is false when the header could not be read.
	Valid bool `json:"valid"`
}

// RetentionPolicy selects the archives to keep from a newest-first list.
type RetentionPolicy interface {
	Apply(archives []Info) (keep []Info)
}

// CountPolicy keeps the newest MaxCount archives.
type CountPolicy struct {
	MaxCount int
}

// Apply implements RetentionPolicy.
func (p *CountPolicy) Apply(archives []Info) []Info {
	if len(archives) <= p.MaxCount {
		return archives
	}
	return archives[:p.MaxCount]
}

// AgePolicy keeps archives created within MaxAge.
type AgePolicy struct {
	MaxAge time.Duration
	now    func() time.Time
}

// Apply implements RetentionPolicy.
func (p *AgePolicy) Apply(archives []Info) []Info {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	cutoff := now().Add(-p.MaxAge)
	var keep []Info
	for _, a := range archives {
		if a.CreatedAt.After(cutoff) {
			keep = append(keep, a)
		}
	}
	return keep
}

// SizePolicy keeps the newest archives while their total stays within
// MaxTotalBytes. The newest archive is always kept.
type SizePolicy struct {
	MaxTotalBytes int64
}

// Apply implements RetentionPolicy.
func (p *SizePolicy) Apply(archives []Info) []Info {
	var keep []Info
	var total int64
	for _, a := range archives {
		if total+a.Size > p.MaxTotalBytes && len(keep) > 0 {
			break
		}
		keep = append(keep, a)
		total += a.Size
	}
	return keep
}

// AnyPolicy keeps an archive when any of its policies keeps it.
type AnyPolicy []RetentionPolicy

// Apply implements RetentionPolicy.
func (p AnyPolicy) Apply(archives []Info) []Info {
	kept := make(map[string]bool)
	for _, policy := range p {
		for _, a := range policy.Apply(archives) {
			kept[a.Path] = true
		}
	}
	var out []Info
	for _, a := range archives {
		if kept[a.Path] {
			out = append(out, a)
		}
	}
	return out
}

// NewPolicy builds a policy from configured limits. Empty limits are
// ignored; with none set the newest ten archives are kept.
func NewPolicy(maxCount int, maxAge, maxTotalSize string) (RetentionPolicy, error) {
	var policies AnyPolicy
	if maxCount > 0 {
		policies = append(policies, &CountPolicy{MaxCount: maxCount})
	}
	if maxAge != "" {
		d, err := ParseDuration(maxAge)
		if err != nil {
			return nil, err
		}
		policies = append(policies, &AgePolicy{MaxAge: d})
	}
	if maxTotalSize != "" {
		n, err := ParseSize(maxTotalSize)
		if err != nil {
			return nil, err
		}
		policies = append(policies, &SizePolicy{MaxTotalBytes: n})
	}
	switch len(policies) {
	case 0:
		return &CountPolicy{MaxCount: 10}, nil
	case 1:
		return policies[0], nil
	default:
		return policies, nil
	}
}

// List returns the archives in dir, newest first. A missing directory
// holds no archives.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading archive directory: %w", err)
	}

	var out []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		info := Info{Path: filepath.Join(dir, name), Size: fi.Size(), CreatedAt: fi.ModTime()}
		if h, err := ReadHeader(info.Path); err == nil {
			info.CreatedAt = h.CreatedAt
			info.Runs = h.RunCount
			info.Valid = true
		}
		out = append(out, info)
	}

	// The timestamp in the name sorts chronologically.
	sort.Slice(out, func(i, j int) bool {
		return filepath.Base(out[i].Path) > filepath.Base(out[j].Path)
	})
	return out, nil
}

// ApplyRetention deletes the archives of dir the policy does not keep and
// returns their paths.
func ApplyRetention(dir string, policy RetentionPolicy) (deleted []string, err error) {
	archives, err := List(dir)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool)
	for _, a := range policy.Apply(archives) {
		keep[a.Path] = true
	}
	for _, a := range archives {
		if keep[a.Path] {
			continue
		}
		if err := os.Remove(a.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", filepath.Base(a.Path), err)
		}
		deleted = append(deleted, a.Path)
	}
	return deleted, nil
}

// ParseDuration accepts Go durations plus day ("30d") and week ("2w")
// suffixes.
func ParseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	switch s[len(s)-1] {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration suffix in %q (want d or w)", s)
	}
}

// ParseSize accepts sizes such as "500KB", "100MB" or "1GB".
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	units := []struct {
		suffix string
		mult   int64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	}
	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(strings.TrimSuffix(s, u.suffix)), 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid size: %q", s)
		}
		return n * u.mult, nil
	}
	return 0, fmt.Errorf("invalid size: %q (want B, KB, MB or GB)", s)
}
