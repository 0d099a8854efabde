// Package projector mirrors relational writes onto an optional, user-scoped
// markdown tree: YAML front matter plus a regex-matched entry line per
// record, written via a temp-file-then-rename for crash safety.
package projector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/specialist-gateway/gateway/internal/models"
)

// Mode controls whether and how the projector mirrors writes to disk.
type Mode string

const (
	ModeOff    Mode = "off"
	ModeMirror Mode = "mirror"
	ModeFull   Mode = "full"
)

var entryLinePattern = regexp.MustCompile(`^-\s+\[(?P<id>[^\]]+)\]\s+(?P<text>.+)$`)

const removedPrefix = "[REMOVED] "

// Projector mirrors check-ins, journal entries, and memories under
// root/users/<user_id>/<kind>/... Disabled entirely when mode is ModeOff.
type Projector struct {
	root string
	mode Mode
}

func New(root string, mode Mode) *Projector {
	return &Projector{root: root, mode: mode}
}

func (p *Projector) enabled() bool {
	return p.mode == ModeMirror || p.mode == ModeFull
}

// ProjectCheckin writes one file per check-in under
// state/users/<user>/checkins/<yyyy>/<id>.md.
func (p *Projector) ProjectCheckin(ctx context.Context, rec models.CheckinRecord) error {
	if !p.enabled() {
		return nil
	}
	year := yearOf(rec.CreatedAt)
	path := filepath.Join(p.root, "users", rec.UserID, "checkins", year, rec.ID+".md")

	front := map[string]any{
		"id":           rec.ID,
		"domain":       string(rec.Domain),
		"track_type":   string(rec.TrackType),
		"outcome":      string(rec.Outcome),
		"confidence":   rec.Confidence,
		"created_at":   timeOrNow(rec.CreatedAt).Format(time.RFC3339),
		"source_model": rec.SourceModel,
	}
	body := fmt.Sprintf("# %s\n\n%s\n", rec.Title, rec.Summary)
	return writeAtomic(path, renderMarkdown(front, body))
}

// ProjectJournal writes one file per journal entry under
// state/users/<user>/journal/<yyyy>/<id>.md.
func (p *Projector) ProjectJournal(ctx context.Context, entry models.JournalEntry) error {
	if !p.enabled() {
		return nil
	}
	year := yearOf(entry.CreatedAt)
	path := filepath.Join(p.root, "users", entry.UserID, "journal", year, entry.ID+".md")

	hints := make([]string, len(entry.DomainHints))
	for i, d := range entry.DomainHints {
		hints[i] = string(d)
	}
	front := map[string]any{
		"id":           entry.ID,
		"domain_hints": hints,
		"created_at":   timeOrNow(entry.CreatedAt).Format(time.RFC3339),
	}
	body := fmt.Sprintf("# %s\n\n%s\n", entry.Title, entry.BodyMarkdown)
	return writeAtomic(path, renderMarkdown(front, body))
}

// ProjectMemory mirrors one memory into its per-(user,domain) domain file:
// state/users/<user>/memories/<domain>.md. Unlike check-ins and journal
// entries, memories accumulate into a single file — one line per memory,
// matching the relational table's (user_id, domain) dedup scope. A write
// for an id already present replaces its line in place; tombstoned rewrites
// the line with the "[REMOVED] " prefix instead of deleting it.
func (p *Projector) ProjectMemory(ctx context.Context, rec models.MemoryRecord, tombstoned bool) error {
	if !p.enabled() {
		return nil
	}
	path := filepath.Join(p.root, "users", rec.UserID, "memories", string(rec.Domain)+".md")

	raw, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading memory domain file: %w", err)
	}

	front, body := splitFrontMatter(string(raw))
	if strings.TrimSpace(body) == "" {
		body = fmt.Sprintf("# %s Memory\n\n", titleCase(string(rec.Domain)))
	}

	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	text := rec.Summary
	if tombstoned {
		text = removedPrefix + text
	}
	newLine := fmt.Sprintf("- [%s] %s", rec.ID, text)

	replaced := false
	for i, line := range lines {
		m := entryLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if m[1] == rec.ID {
			lines[i] = newLine
			replaced = true
			break
		}
	}
	if !replaced {
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "" {
			lines = append(lines, "")
		}
		lines = append(lines, newLine)
	}
	newBody := strings.Join(lines, "\n")

	activeCount := 0
	for _, line := range lines {
		m := entryLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if !strings.HasPrefix(m[2], strings.TrimSpace(removedPrefix)) {
			activeCount++
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if front == nil {
		front = map[string]any{}
	}
	if _, ok := front["created_at"]; !ok {
		front["created_at"] = now
	}
	front["domain"] = string(rec.Domain)
	front["updated_at"] = now
	front["entry_count"] = activeCount
	front["archived"] = false
	front["tombstone"] = activeCount == 0
	if _, ok := front["created_by_agent"]; !ok {
		front["created_by_agent"] = rec.CreatedByAgent
	}
	front["last_updated_by_agent"] = rec.LastUpdatedByAgent
	if front["last_updated_by_agent"] == "" {
		front["last_updated_by_agent"] = rec.CreatedByAgent
	}

	return writeAtomic(path, renderMarkdown(front, newBody+"\n"))
}

func renderMarkdown(front map[string]any, body string) []byte {
	fm, err := yaml.Marshal(front)
	if err != nil {
		fm = []byte("{}\n")
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")
	return []byte(b.String())
}

func splitFrontMatter(content string) (map[string]any, string) {
	if !strings.HasPrefix(content, "---\n") {
		return nil, content
	}
	rest := content[4:]
	idx := strings.Index(rest, "\n---\n")
	if idx == -1 {
		return nil, content
	}
	var front map[string]any
	if err := yaml.Unmarshal([]byte(rest[:idx]), &front); err != nil {
		return nil, content
	}
	return front, rest[idx+5:]
}

// writeAtomic writes data to a temp file in the target directory and
// renames it into place, so readers never observe a partial write.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating projection directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp projection file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming projection file into place: %w", err)
	}
	return nil
}

func yearOf(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return strconv.Itoa(t.Year())
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func titleCase(domain string) string {
	words := strings.Split(strings.ReplaceAll(domain, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
