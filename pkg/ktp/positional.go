package ktp

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// slot is one fixed-offset line after the RT/RW anchor.
type slot struct {
	field Field
	clean func(p *positionalExtractor, raw string) string
}

// layout is the KTP template below the RT/RW line: offset+1 is Kel/Desa,
// offset+2 Kecamatan and so on.
var layout = []slot{
	{field: KelDesa, clean: stripColon},
	{field: Kecamatan, clean: stripColon},
	{field: Agama, clean: lettersOnly},
	{field: StatusPerkawinan, clean: stripColon},
	{field: Pekerjaan, clean: cleanOccupation},
}

// slotLabels holds the label pattern of every layout field. A positional
// line that still carries its label is stripped of it, so a label-only line
// yields nothing.
var slotLabels = func() map[Field]*regexp.Regexp {
	m := make(map[Field]*regexp.Regexp, len(layout))
	for _, s := range layout {
		for _, r := range rules {
			if len(r.Fields) == 1 && r.Fields[0] == s.field {
				m[s.field] = r.detect
			}
		}
	}
	return m
}()

// nationalityCode is the nationality printed on cards of Indonesian citizens.
const nationalityCode = "WNI"

type positionalState int

const (
	stateScanning positionalState = iota // no anchor seen yet
	stateAnchored                        // consuming the slots after the anchor
	stateDone                            // every slot filled
	statePartial                         // input ended before every slot was filled
)

// positionalExtractor assigns the lines following the RT/RW anchor to the
// fields of layout. Only the first anchor is honoured.
type positionalExtractor struct {
	state         positionalState
	anchorLine    int
	next          int
	localityNoise []string
}

func newPositionalExtractor(localityNoise []string) *positionalExtractor {
	return &positionalExtractor{localityNoise: localityNoise}
}

// anchor moves the machine to the anchored state at line index i.
func (p *positionalExtractor) anchor(i int) {
	if p.state != stateScanning {
		return
	}
	p.state = stateAnchored
	p.anchorLine = i
}

func (p *positionalExtractor) consuming() bool {
	return p.state == stateAnchored
}

// feed consumes the next line after the anchor into its slot.
func (p *positionalExtractor) feed(raw string, b *recordBuilder) {
	if p.state != stateAnchored {
		return
	}
	s := layout[p.next]
	value := raw
	if label, ok := slotLabels[s.field]; ok {
		value = label.ReplaceAllString(value, "")
	}
	b.infer(s.field, Normalize(s.field, s.clean(p, value)))
	if s.field == Pekerjaan && strings.Contains(raw, nationalityCode) {
		b.infer(Kewarganegaraan, nationalityCode)
	}

	p.next++
	if p.next == len(layout) {
		p.state = stateDone
	}
}

// finish is called once the input is exhausted. It returns a warning when
// the machine ran out of lines before filling every slot.
func (p *positionalExtractor) finish() (string, bool) {
	if p.state != stateAnchored {
		return "", false
	}
	p.state = statePartial

	missing := make([]string, 0, len(layout)-p.next)
	for _, s := range layout[p.next:] {
		missing = append(missing, string(s.field))
	}
	return fmt.Sprintf("reached end of text %d line(s) after RT/RW (line %d); not inferred: %s",
		p.next, p.anchorLine+1, strings.Join(missing, ", ")), true
}

func stripColon(_ *positionalExtractor, raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, ":", ""))
}

func lettersOnly(_ *positionalExtractor, raw string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, raw)
}

// cleanOccupation removes the separator and any locality fragment the OCR
// pulled in from the issuing-city text printed beside the occupation.
func cleanOccupation(p *positionalExtractor, raw string) string {
	s := stripColon(p, raw)
	for _, noise := range p.localityNoise {
		if noise == "" {
			continue
		}
		s = strings.ReplaceAll(s, noise, "")
	}
	return strings.Join(strings.Fields(s), " ")
}
