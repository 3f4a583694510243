// Package gdc pulls data files listed by a GDC manifest out of cloud
// buckets: it builds the manifest query, resolves file ids to bucket
// locations through IndexD and downloads the objects.
package gdc

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type inContent struct {
	Field string   `json:"field"`
	Value []string `json:"value"`
}

type inFilter struct {
	Op      string    `json:"op"`
	Content inContent `json:"content"`
}

type andFilter struct {
	Op      string     `json:"op"`
	Content []inFilter `json:"content"`
}

// BuildManifestFilter turns a list of field/value pairs, as copied from a
// GDC search, into an "and" of "in" filters. Keys of one map are emitted in
// sorted order and trailing newlines are trimmed from values.
func BuildManifestFilter(items []map[string]string) (string, error) {
	f := andFilter{Op: "and", Content: []inFilter{}}
	for _, kv := range items {
		keys := make([]string, 0, len(kv))
		for k := range kv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			f.Content = append(f.Content, inFilter{
				Op:      "in",
				Content: inContent{Field: k, Value: []string{strings.TrimRight(kv[k], "\n")}},
			})
		}
	}

	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("marshal filter: %w", err)
	}
	return string(b), nil
}
