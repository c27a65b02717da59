package migration

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

var migrationFileRe = regexp.MustCompile(`^(\d+)_([a-z0-9_]+)\.(up|down)\.sql$`)

var migrationTemplate = template.Must(template.New("migration").Parse(`-- {{.Title}}
-- Created: {{.Created}}
{{if .Rollback}}
-- Rollback SQL
{{else}}
-- Migration SQL
{{end}}`))

// File is one version of the schema, with its up and down scripts
type File struct {
	Version  uint
	Name     string
	UpPath   string
	DownPath string
}

// List returns the migrations in source ordered by version
func List(source fs.FS) ([]File, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	byVersion := map[uint]*File{}
	for _, entry := range entries {
		match := migrationFileRe.FindStringSubmatch(entry.Name())
		if entry.IsDir() || match == nil {
			continue
		}
		v, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid migration version %q: %w", match[1], err)
		}
		f, ok := byVersion[uint(v)]
		if !ok {
			f = &File{Version: uint(v), Name: match[2]}
			byVersion[uint(v)] = f
		}
		if f.Name != match[2] {
			return nil, fmt.Errorf("migration version %d has two names: %s and %s", v, f.Name, match[2])
		}
		if match[3] == "up" {
			f.UpPath = entry.Name()
		} else {
			f.DownPath = entry.Name()
		}
	}

	out := make([]File, 0, len(byVersion))
	for _, f := range byVersion {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Create writes the next sequential up/down pair into dir
func Create(dir, name string, now time.Time) (*File, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}
	existing, err := List(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	base := fmt.Sprintf("%06d_%s", next, slug)
	f := &File{
		Version:  next,
		Name:     slug,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}
	if err := writeMigration(f.UpPath, name, now, false); err != nil {
		return nil, err
	}
	if err := writeMigration(f.DownPath, name, now, true); err != nil {
		_ = os.Remove(f.UpPath)
		return nil, err
	}
	return f, nil
}

func writeMigration(path, title string, now time.Time, rollback bool) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()
	return migrationTemplate.Execute(out, map[string]any{
		"Title":    strings.TrimSpace(title),
		"Created":  now.UTC().Format(time.RFC3339),
		"Rollback": rollback,
	})
}

// sanitizeName lowercases name and collapses separators into single underscores
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}
