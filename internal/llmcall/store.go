package llmcall

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// QueryFilter specifies filters for listing LLM calls. Zero fields match
// everything.
type QueryFilter struct {
	Stage     string
	PromptKey string
	Provider  string
	Model     string
	After     *time.Time
	Success   *bool
	Limit     int
}

func (f QueryFilter) match(c *Call) bool {
	if f.Stage != "" && c.Stage != f.Stage {
		return false
	}
	if f.PromptKey != "" && c.PromptKey != f.PromptKey {
		return false
	}
	if f.Provider != "" && c.Provider != f.Provider {
		return false
	}
	if f.Model != "" && c.Model != f.Model {
		return false
	}
	if f.After != nil && !c.Timestamp.After(*f.After) {
		return false
	}
	if f.Success != nil && c.Success != *f.Success {
		return false
	}
	return true
}

// ReadFile reads a call log. A missing file yields no calls.
func ReadFile(path string) ([]Call, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var calls []Call
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var c Call
		if err := json.Unmarshal([]byte(text), &c); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		calls = append(calls, c)
	}
	return calls, sc.Err()
}

// List returns the book's calls matching f, newest first.
func (r *Recorder) List(book string, f QueryFilter) ([]Call, error) {
	r.mu.Lock()
	all, err := ReadFile(r.Path(book))
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]Call, 0, len(all))
	for i := range all {
		if f.match(&all[i]) {
			out = append(out, all[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Get returns one call by ID.
func (r *Recorder) Get(book, id string) (*Call, error) {
	calls, err := r.List(book, QueryFilter{})
	if err != nil {
		return nil, err
	}
	for i := range calls {
		if calls[i].ID == id {
			return &calls[i], nil
		}
	}
	return nil, nil
}
