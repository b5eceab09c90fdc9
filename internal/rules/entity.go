// Package rules owns the persisted allow/deny/ask pattern lists and
// their read-modify-write cycle. The backing document is user-editable
// JSON; top-level keys this package does not own are preserved verbatim
// across edits.
package rules

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ListName identifies one of the three rule lists.
type ListName string

const (
	Allowlist ListName = "allowlist"
	Denylist  ListName = "denylist"
	Asklist   ListName = "asklist"
)

// ParseListName validates a list name from user input.
func ParseListName(s string) (ListName, error) {
	switch ListName(s) {
	case Allowlist, Denylist, Asklist:
		return ListName(s), nil
	}
	return "", fmt.Errorf("unknown rule list %q", s)
}

// Document is the full persisted rule document: the three lists plus any
// unknown top-level keys found in the file, which round-trip untouched.
type Document struct {
	Allow []string
	Deny  []string
	Ask   []string
	Extra map[string]json.RawMessage
}

func (d *Document) List(name ListName) []string {
	switch name {
	case Allowlist:
		return d.Allow
	case Denylist:
		return d.Deny
	case Asklist:
		return d.Ask
	}
	return nil
}

func (d *Document) setList(name ListName, rules []string) {
	switch name {
	case Allowlist:
		d.Allow = rules
	case Denylist:
		d.Deny = rules
	case Asklist:
		d.Ask = rules
	}
}

func (d *Document) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for _, name := range []ListName{Allowlist, Denylist, Asklist} {
		var list []string
		if msg, ok := raw[string(name)]; ok {
			if err := json.Unmarshal(msg, &list); err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}
			delete(raw, string(name))
		}
		d.setList(name, list)
	}
	d.Extra = raw
	return nil
}

func (d *Document) MarshalJSON() ([]byte, error) {
	raw := make(map[string]json.RawMessage, len(d.Extra)+3)
	for k, v := range d.Extra {
		raw[k] = v
	}
	for _, name := range []ListName{Allowlist, Denylist, Asklist} {
		list := d.List(name)
		if list == nil {
			list = []string{}
		}
		msg, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		raw[string(name)] = msg
	}
	return json.Marshal(raw)
}

// normalize trims entries, drops blank ones, deduplicates, and sorts
// lexicographically so the persisted lists are stable for the UI.
func normalize(list []string) []string {
	seen := make(map[string]bool, len(list))
	result := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}
