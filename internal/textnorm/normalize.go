// Package textnorm strips caption and copyright noise out of body text.
package textnorm

import (
	"strings"
)

// Noise is one positional set of fragments gathered from a figure: the two
// caption spans and the photographer/copyright line. Any of them may be empty.
type Noise struct {
	Caption   string
	Credit    string
	Copyright string
}

// PairNoise zips the three fragment sequences by index. The result is as long
// as the longest input; missing entries are empty strings, so a figure with a
// credit but no caption (or the reverse) still lines up.
func PairNoise(captions, credits, copyrights []string) []Noise {
	n := max(len(captions), len(credits), len(copyrights))
	out := make([]Noise, n)
	for i := range out {
		out[i] = Noise{
			Caption:   at(captions, i),
			Credit:    at(credits, i),
			Copyright: at(copyrights, i),
		}
	}
	return out
}

// Fragments flattens paired noise into removal order: credit, caption,
// copyright for each index. Empty fragments are dropped.
func Fragments(noise []Noise) []string {
	out := make([]string, 0, len(noise)*3)
	for _, n := range noise {
		for _, f := range []string{n.Credit, n.Caption, n.Copyright} {
			if f != "" {
				out = append(out, f)
			}
		}
	}
	return out
}

// Normalize removes every occurrence of every fragment from each paragraph and
// then strips newline characters. Removal repeats until no fragment occurs, so
// Normalize(Normalize(p, f), f) == Normalize(p, f).
func Normalize(paragraphs, fragments []string) []string {
	out := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		out[i] = StripNewlines(Remove(p, fragments))
	}
	return out
}

// Remove deletes all occurrences of the fragments from s.
func Remove(s string, fragments []string) string {
	for {
		before := s
		for _, f := range fragments {
			if f == "" {
				continue
			}
			s = strings.ReplaceAll(s, f, "")
		}
		if s == before {
			return s
		}
	}
}

// StripNewlines removes CR and LF characters.
func StripNewlines(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

// CollapseSpace trims s and folds internal whitespace runs into single spaces.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}
