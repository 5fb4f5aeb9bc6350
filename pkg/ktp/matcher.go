package ktp

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule is one entry of the label table. A rule detects the label it owns on a
// line and captures the raw text that follows the label and its separator.
type Rule struct {
	Name   string  // Rule name, for diagnostics
	Fields []Field // Fields the rule can assign
	Anchor bool    // Whether a match starts the positional fallback

	detect  *regexp.Regexp
	capture func(line string) []Entry
}

// Match reports whether the rule owns line and returns the raw captures.
// Captured values are not normalized.
func (r Rule) Match(line string) ([]Entry, bool) {
	if !r.detect.MatchString(line) {
		return nil, false
	}
	return r.capture(line), true
}

// separator is what follows most labels: an optional colon or dash.
const separator = `\s*[:\-]?\s*(.*)`

// noisySeparator also swallows the '1' and '?' Tesseract reads in place of a
// colon after short labels.
const noisySeparator = `\s*[:1?]*\s*(.*)`

// nikLength is the number of digits in a NIK.
const nikLength = 16

// greedySeparator drops any run of punctuation or digit noise after a label.
const greedySeparator = `\s*[\W\d]*\s*(.*)`

// rules is evaluated top to bottom; the first rule whose label is detected
// owns the line. Labels that commonly appear inside other lines come last.
var rules = []Rule{
	nikRule(),
	labelRule(Nama, `Nama`, greedySeparator),
	labelRule(TempatTglLahir, `Tempat\s*[/Il1|]?\s*T[g9]?[lIi1]\s*Lahir`, separator),
	labelRule(Alamat, `A[tl]amat`, greedySeparator),
	sexBloodRule(),
	labelRule(BerlakuHingga, `Berlaku Hingga`, separator),
	anchorRule(labelRule(RTRW, `RT\s*[I/l1|]?\s*RW`, noisySeparator)),
	labelRule(KelDesa, `Kel\s*[/I1l|]?\s*Desa`, separator),
	labelRule(Kecamatan, `Kecamatan`, separator),
	labelRule(Agama, `Agama`, separator),
	labelRule(StatusPerkawinan, `Status Perkawinan`, separator),
	labelRule(Pekerjaan, `Pekerjaan`, separator),
	labelRule(Kewarganegaraan, `Kewar(?:ga)?ne?garaan`, separator),
}

// Rules returns a copy of the label table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// matchLine runs the label table against line. It returns the first matching
// rule and its captures.
func matchLine(line string) (Rule, []Entry, bool) {
	for _, r := range rules {
		if entries, ok := r.Match(line); ok {
			return r, entries, true
		}
	}
	return Rule{}, nil, false
}

func labelRule(f Field, label, sep string) Rule {
	capture := regexp.MustCompile(label + sep)
	return Rule{
		Name:   string(f),
		Fields: []Field{f},
		detect: regexp.MustCompile(label),
		capture: func(line string) []Entry {
			m := capture.FindStringSubmatch(line)
			if m == nil {
				return nil
			}
			return []Entry{{Field: f, Value: strings.TrimSpace(m[1])}}
		},
	}
}

func anchorRule(r Rule) Rule {
	r.Anchor = true
	return r
}

// nikRule captures the NIK. A leading '1' or '?' is only taken for a misread
// colon while more than a full NIK remains after it, so NIKs starting with
// 1 (Sumatra) keep their first digit.
func nikRule() Rule {
	label := regexp.MustCompile(`\bNIK`)
	return Rule{
		Name:   string(NIK),
		Fields: []Field{NIK},
		detect: label,
		capture: func(line string) []Entry {
			loc := label.FindStringIndex(line)
			if loc == nil {
				return nil
			}
			return []Entry{{Field: NIK, Value: trimNIKSeparator(line[loc[1]:])}}
		},
	}
}

func trimNIKSeparator(s string) string {
	const spaceOrColon = " \t:"
	s = strings.TrimLeft(s, spaceOrColon)
	for len(s) > 0 && (s[0] == '1' || s[0] == '?') {
		rest := strings.TrimLeft(s[1:], spaceOrColon)
		if utf8.RuneCountInString(strings.TrimSpace(rest)) < nikLength {
			break
		}
		s = rest
	}
	return strings.TrimSpace(s)
}

// bloodLabel tolerates the "Go1"/"G0l" misreads of "Gol".
const bloodLabel = `G[o0][lI1]\.?\s*Darah`

var (
	sexPattern   = regexp.MustCompile(`Jenis Kelamin\s*[\W\d]*\s*(.*?)\s*(?:` + bloodLabel + `|\bG[o0][lI1]\b|$)`)
	bloodPattern = regexp.MustCompile(bloodLabel + separator)
)

// sexBloodRule handles the one KTP line that carries two fields:
// "Jenis Kelamin : LAKI-LAKI Gol. Darah : O". The sex is the text between the
// label and the blood type label (or a lone "Gol"), or the whole remainder
// when neither is present; the blood type is whatever follows "Gol. Darah".
func sexBloodRule() Rule {
	return Rule{
		Name:   "Jenis Kelamin/Gol. Darah",
		Fields: []Field{JenisKelamin, GolonganDarah},
		detect: regexp.MustCompile(`Jenis Kelamin`),
		capture: func(line string) []Entry {
			var entries []Entry
			if m := sexPattern.FindStringSubmatch(line); m != nil {
				entries = append(entries, Entry{Field: JenisKelamin, Value: strings.TrimSpace(m[1])})
			}
			if m := bloodPattern.FindStringSubmatch(line); m != nil {
				entries = append(entries, Entry{Field: GolonganDarah, Value: strings.TrimSpace(m[1])})
			}
			return entries
		},
	}
}
