package kernel

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
)

// kernelPattern matches mhwd-kernel package names such as linux515, linux61
// or the variant linux61-rt.
var kernelPattern = regexp.MustCompile(`linux\d+(?:-[a-z]+)?`)

// runningLinePattern matches mhwd-kernel's "Currently running: 6.1.12-1-MANJARO (linux61)".
var runningLinePattern = regexp.MustCompile(`(?i)currently running:.*\((linux\d+(?:-[a-z]+)?)\)`)

// releasePattern captures major and minor from a uname release string.
var releasePattern = regexp.MustCompile(`^(\d+)\.(\d+)`)

// Entry is one installed kernel package.
type Entry struct {
	Identifier string
	Running    bool
}

// MatchMode selects how a listing line is compared with the running kernel.
type MatchMode int

const (
	// MatchExact flags an entry as running when its identifier equals the
	// running token, or the line holds the running token as a whole word.
	MatchExact MatchMode = iota
	// MatchSubstring flags an entry as running when the running string
	// occurs anywhere in its line. linux5 also protects linux515.
	MatchSubstring
)

// String returns the flag spelling of the mode.
func (m MatchMode) String() string {
	if m == MatchSubstring {
		return "substring"
	}
	return "exact"
}

// ParseMatchMode parses "exact" or "substring".
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return MatchExact, nil
	case "substring":
		return MatchSubstring, nil
	}
	return MatchExact, fmt.Errorf("unknown kernel match mode %q (want exact or substring)", s)
}

// Parse extracts kernel entries from listing, one per distinct identifier in
// order of first appearance. An identifier seen on any line that matches
// running is flagged Running.
func Parse(running, listing string, mode MatchMode) []Entry {
	running = strings.TrimSpace(running)

	var entries []Entry
	index := make(map[string]int)

	scanner := bufio.NewScanner(strings.NewReader(listing))
	for scanner.Scan() {
		line := scanner.Text()
		id := kernelPattern.FindString(line)
		if id == "" {
			continue
		}
		isRunning := matches(mode, running, id, line)

		if i, ok := index[id]; ok {
			entries[i].Running = entries[i].Running || isRunning
			continue
		}
		index[id] = len(entries)
		entries = append(entries, Entry{Identifier: id, Running: isRunning})
	}
	return entries
}

func matches(mode MatchMode, running, id, line string) bool {
	if running == "" {
		return false
	}
	if mode == MatchSubstring {
		return strings.Contains(line, running)
	}
	if id == running {
		return true
	}
	for _, field := range strings.FieldsFunc(line, isSeparator) {
		if field == running {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '(', ')', '[', ']', ',', ':', '*':
		return true
	}
	return false
}

// ComputeRemovable returns the entries of listing that are not the running
// kernel. An empty or unrecognised listing yields an empty result. When
// running is blank nothing can be proven safe and the result is empty.
func ComputeRemovable(running, listing string, mode MatchMode) []Entry {
	if strings.TrimSpace(running) == "" {
		return nil
	}
	var removable []Entry
	for _, e := range Parse(running, listing, mode) {
		if !e.Running {
			removable = append(removable, e)
		}
	}
	return removable
}

// Identifiers returns the identifiers of entries.
func Identifiers(entries []Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Identifier)
	}
	return ids
}

// RunningFromListing returns the package named on mhwd-kernel's
// "Currently running" line, or "" when the listing has none.
func RunningFromListing(listing string) string {
	m := runningLinePattern.FindStringSubmatch(listing)
	if m == nil {
		return ""
	}
	return m[1]
}

// RunningFromRelease maps a kernel release such as "6.1.12-1-MANJARO" to the
// mhwd-kernel package name "linux61".
func RunningFromRelease(release string) string {
	m := releasePattern.FindStringSubmatch(strings.TrimSpace(release))
	if m == nil {
		return ""
	}
	return "linux" + m[1] + m[2]
}
