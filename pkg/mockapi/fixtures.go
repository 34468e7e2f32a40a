package mockapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Fixture is a canned response for one query
type Fixture struct {
	Query  string        `yaml:"query" json:"query"`
	Status int           `yaml:"status" json:"status"`
	Delay  time.Duration `yaml:"delay" json:"delay"`
	Body   any           `yaml:"body" json:"body"`
}

// FixtureFile is the on-disk fixture format
type FixtureFile struct {
	Responses []Fixture `yaml:"responses"`
}

type response struct {
	status int
	delay  time.Duration
	body   []byte
}

// Fixtures maps lowercased queries to canned responses
type Fixtures struct {
	mu        sync.RWMutex
	responses map[string]response
}

// NewFixtures creates an empty fixture set
func NewFixtures() *Fixtures {
	return &Fixtures{responses: make(map[string]response)}
}

// LoadFixturesFile reads a YAML fixture file
func LoadFixturesFile(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixtures: %w", err)
	}
	defer f.Close()
	return LoadFixtures(f)
}

// LoadFixtures decodes YAML fixtures
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	var file FixtureFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	fx := NewFixtures()
	for i, item := range file.Responses {
		if err := fx.Add(item); err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
	}
	return fx, nil
}

// Add registers a fixture, replacing any previous one for the same query
func (f *Fixtures) Add(item Fixture) error {
	status := item.Status
	if status == 0 {
		status = http.StatusOK
	}
	body := item.Body
	if body == nil {
		body = map[string]any{"results": []any{}}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("fixture %q has a body that cannot be encoded: %w", item.Query, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[fixtureKey(item.Query)] = response{status: status, delay: item.Delay, body: data}
	return nil
}

// AddJSON registers a raw JSON body for query with status 200
func (f *Fixtures) AddJSON(query string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[fixtureKey(query)] = response{status: http.StatusOK, body: body}
}

// Len returns the number of fixtures
func (f *Fixtures) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.responses)
}

func (f *Fixtures) lookup(query string) (response, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	r, ok := f.responses[fixtureKey(query)]
	return r, ok
}

func fixtureKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
