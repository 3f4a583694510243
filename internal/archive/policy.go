package archive

import "strings"

// ExclusionPolicy is the batch-wide, read-only set of file exclusions.
type ExclusionPolicy struct {
	ExcludedSamples map[string]struct{}
	// Suffixes are matched with strings.HasSuffix against the file name.
	Suffixes []string
	// Substrings are matched with strings.Contains against the file name.
	Substrings []string
}

// NewExclusionPolicy builds a policy from excluded sample barcodes and the
// configured non-upload patterns. A pattern written as "*needle*" is a
// substring entry whose needle drops the first and last character. Every
// pattern, wildcard or not, is also tried as a file-name suffix. Blank
// patterns are ignored.
func NewExclusionPolicy(samples []string, patterns []string) ExclusionPolicy {
	p := ExclusionPolicy{ExcludedSamples: make(map[string]struct{}, len(samples))}
	for _, s := range samples {
		p.ExcludedSamples[s] = struct{}{}
	}
	for _, pat := range patterns {
		if pat == "" {
			continue
		}
		if pat[0] == '*' && len(pat) >= 2 {
			p.Substrings = append(p.Substrings, pat[1:len(pat)-1])
		}
		p.Suffixes = append(p.Suffixes, pat)
	}
	return p
}

func (p ExclusionPolicy) sampleExcluded(barcode string) bool {
	_, ok := p.ExcludedSamples[barcode]
	return ok
}

// matchPattern returns the pattern that rejects name, if any.
func (p ExclusionPolicy) matchPattern(name string) (string, bool) {
	for _, sub := range p.Substrings {
		if strings.Contains(name, sub) {
			return "*" + sub + "*", true
		}
	}
	for _, suf := range p.Suffixes {
		if strings.HasSuffix(name, suf) {
			return suf, true
		}
	}
	return "", false
}
