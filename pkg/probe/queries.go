// Package probe sends malformed and boundary inputs to the search API and summarizes how it copes
package probe

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Query kinds
const (
	KindInjection = "injection"
	KindEdgeCase  = "edge_case"
)

// Query is one probe input
type Query struct {
	Text string `yaml:"text" json:"query"`
	Kind string `yaml:"kind" json:"test_type"`
}

// QueryFile is the YAML layout of a custom probe query file
type QueryFile struct {
	Injection []string `yaml:"injection"`
	EdgeCases []string `yaml:"edge_cases"`
}

var injectionInputs = []string{
	`{"malicious": "payload"}`,
	`"; DROP TABLE users; --`,
	`' OR '1'='1`,
	`{"query": {"match_all": {}}}`,
	`{"query": {"bool": {"must": [{"match_all": {}}]}}}`,
	`{"script": {"source": "System.exit(0)"}}`,
	strings.Repeat("A", 10000),
	`{"query": {"bool": {"should": [` + strings.Repeat(`{"match": {"field": "value"}},`, 1000) + `]}}}`,
	`\n\r\t`,
	`"""`,
	`'''`,
	`${jndi:ldap://example.invalid/}`,
	"\x00\x01\x02",
	`%00%01%02`,
	`<script>alert("xss")</script>`,
	`javascript:alert(1)`,
	`; cat /etc/passwd`,
	`| whoami`,
	`&& id`,
	`../../../etc/passwd`,
	`..\..\..\windows\system32\drivers\etc\hosts`,
	`{"$where": "function() { return true; }"}`,
	`{"$regex": ".*"}`,
	`<?xml version="1.0"?><!DOCTYPE root [<!ENTITY test SYSTEM "file:///etc/passwd">]><root>&test;</root>`,
	`*)(uid=*`,
	`*)(&(uid=*`,
	`{{7*7}}`,
	`${7*7}`,
	`#{7*7}`,
	`<!--#exec cmd="id"-->`,
	"test\x00admin",
	"test\radmin",
	"test\nadmin",
}

var edgeCaseInputs = []string{
	"",
	" ",
	"   ",
	"a",
	"test query with spaces",
	"test-query-with-hyphens",
	"test_query_with_underscores",
	"test.query.with.dots",
	"test@query.with.email.format",
	`query with "quotes"`,
	"query with 'single quotes'",
	"query with (parentheses)",
	"query with [brackets]",
	"query with {braces}",
	"query with /slashes/",
	`query with \backslashes\`,
	"query with #hashtag",
	"query with &ampersand",
	"query with %percent",
	"query with +plus+signs",
	"query with =equals=signs",
	"query with ?question?marks",
	"query with !exclamation!marks",
	"query with *asterisks*",
	"query with ~tildes~",
	"query with `backticks`",
	"query with |pipes|",
	"query with <angle> brackets",
	"query with multiple    spaces    between    words",
	"UPPERCASE QUERY",
	"lowercase query",
	"MiXeD cAsE qUeRy",
	"1234567890",
	"!@#$%^&*()_+-=[]{}|;:,.<>?",
	"café résumé naïve",
	"中文查询",
	"العربية",
	"русский",
	"🔍🎯📊",
}

// InjectionCases returns hostile inputs the API should reject or neutralize
func InjectionCases() []Query {
	return toQueries(injectionInputs, KindInjection)
}

// EdgeCases returns legitimate boundary inputs the API should answer cleanly
func EdgeCases() []Query {
	return toQueries(edgeCaseInputs, KindEdgeCase)
}

// LoadQueryFile reads a YAML query file
func LoadQueryFile(path string) ([]Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open query file: %w", err)
	}
	defer f.Close()
	return LoadQueries(f)
}

// LoadQueries decodes injection and edge case lists from YAML
func LoadQueries(r io.Reader) ([]Query, error) {
	var qf QueryFile
	if err := yaml.NewDecoder(r).Decode(&qf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse query file: %w", err)
	}
	out := toQueries(qf.Injection, KindInjection)
	return append(out, toQueries(qf.EdgeCases, KindEdgeCase)...), nil
}

// Take returns at most the first n queries. n <= 0 keeps all.
func Take(queries []Query, n int) []Query {
	if n <= 0 || n >= len(queries) {
		return queries
	}
	return queries[:n]
}

func toQueries(inputs []string, kind string) []Query {
	out := make([]Query, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, Query{Text: in, Kind: kind})
	}
	return out
}
