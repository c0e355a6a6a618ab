// Package allowlist persists approved command prefixes and matches parsed
// commands against them.
package allowlist

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ShellGate/shellgate/internal/fileutil"
	"github.com/ShellGate/shellgate/internal/logger"
	"github.com/ShellGate/shellgate/internal/shell"
)

var log = logger.New("allowlist")

// Entry is one allowlisted command prefix.
type Entry struct {
	// Prefix is the exact token sequence the command must start with.
	Prefix []string `yaml:"prefix"`
	// Dialect pins the entry to one shell dialect. Empty means any
	// dialect, with cross-dialect command-name equivalence applied.
	Dialect string `yaml:"dialect,omitempty"`
	// Comment is a free-form note shown when listing entries.
	Comment string `yaml:"comment,omitempty"`
}

// Validate checks that the entry is well formed.
func (e *Entry) Validate() error {
	if len(e.Prefix) == 0 {
		return fmt.Errorf("entry prefix must not be empty")
	}
	if e.Prefix[0] == "" {
		return fmt.Errorf("entry prefix must start with a command name")
	}
	if e.Dialect != "" {
		if _, err := shell.ParseDialect(e.Dialect); err != nil {
			return fmt.Errorf("entry dialect: %w", err)
		}
	}
	return nil
}

// file is the on-disk document shape.
type file struct {
	Entries []Entry `yaml:"entries"`
}

// Store holds allowlist entries and persists them to a YAML file.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries []Entry
}

// New creates a store backed by the given file path. Call Load before use.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the allowlist file. A missing file is not an error; the store
// starts empty.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("allowlist file %s does not exist, starting empty", s.path)
			return nil
		}
		return fmt.Errorf("failed to read allowlist: %w", err)
	}

	var doc file
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid allowlist YAML: %w", err)
	}

	for i := range doc.Entries {
		if err := doc.Entries[i].Validate(); err != nil {
			return fmt.Errorf("allowlist entry %d: %w", i, err)
		}
	}

	s.mu.Lock()
	s.entries = doc.Entries
	s.mu.Unlock()

	log.Debug("loaded %d allowlist entries from %s", len(doc.Entries), s.path)
	return nil
}

// Save writes the allowlist atomically: marshal to a temp file in the same
// directory, then rename over the target. The file is owner-only.
func (s *Store) Save() error {
	s.mu.RLock()
	doc := file{Entries: append([]Entry(nil), s.entries...)}
	s.mu.RUnlock()

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal allowlist: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := fileutil.SecureMkdirAll(dir); err != nil {
		return fmt.Errorf("failed to create allowlist directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := fileutil.SecureWriteFile(tmp, data); err != nil {
		return fmt.Errorf("failed to write allowlist: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace allowlist: %w", err)
	}

	log.Debug("saved %d allowlist entries to %s", len(doc.Entries), s.path)
	return nil
}

// Entries returns a copy of the current entries.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Add appends an entry. Duplicate entries (same prefix and dialect) are
// rejected.
func (s *Store) Add(e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, have := range s.entries {
		if have.Dialect == e.Dialect && samePrefix(have.Prefix, e.Prefix) {
			return fmt.Errorf("entry already exists: %v", e.Prefix)
		}
	}
	s.entries = append(s.entries, e)
	return nil
}

// Remove deletes the entry with the given prefix and dialect. It reports
// whether an entry was removed.
func (s *Store) Remove(prefix []string, dialect string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, have := range s.entries {
		if have.Dialect == dialect && samePrefix(have.Prefix, prefix) {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Match reports whether the parsed command is covered by any entry, and
// returns the first matching entry. Commands that are unsafe to match
// (structural flags or dangerous patterns) never match.
func (s *Store) Match(cmd *shell.ParsedCommand) (Entry, bool) {
	if !shell.IsSafeForMatching(cmd) {
		return Entry{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if matchEntry(cmd, e) {
			return e, true
		}
	}
	return Entry{}, false
}

// matchEntry checks one entry against a safe parsed command.
func matchEntry(cmd *shell.ParsedCommand, e Entry) bool {
	if e.Dialect != "" {
		// Pinned entries match only their own dialect, exactly.
		d, err := shell.ParseDialect(e.Dialect)
		if err != nil || d != cmd.Dialect {
			return false
		}
		return shell.MatchesPrefix(cmd, e.Prefix)
	}

	if shell.MatchesPrefix(cmd, e.Prefix) {
		return true
	}

	// Unpinned entries also accept an equivalent command name in the
	// first position (ls vs dir vs Get-ChildItem); the remaining prefix
	// tokens must still match exactly.
	if len(cmd.Tokens) < len(e.Prefix) {
		return false
	}
	if !shell.CommandEquivalents(cmd.Tokens[0], e.Prefix[0]) {
		return false
	}
	for i := 1; i < len(e.Prefix); i++ {
		if cmd.Tokens[i] != e.Prefix[i] {
			return false
		}
	}
	return true
}

func samePrefix(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
