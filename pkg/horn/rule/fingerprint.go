package rule

import (
	"strconv"
	"strings"
)

// Fingerprint is the canonical signature of a rule structure. Two structures
// share a fingerprint exactly when they are equal after renaming bound
// variables in order of first left-to-right occurrence.
type Fingerprint string

// NewFingerprint computes the fingerprint of a structure.
func NewFingerprint(structure []Predicate) Fingerprint {
	var b strings.Builder
	canon := make(map[int]int)
	for _, p := range structure {
		writePart(&b, strconv.Itoa(p.Functor)+"/"+strconv.Itoa(len(p.Args)))
		for _, a := range p.Args {
			switch a.Kind {
			case ArgVariable:
				id, ok := canon[a.ID]
				if !ok {
					id = len(canon)
					canon[a.ID] = id
				}
				writePart(&b, "v"+strconv.Itoa(id))
			case ArgConstant:
				writePart(&b, "c"+strconv.Itoa(a.ID))
			default:
				writePart(&b, "_")
			}
		}
		b.WriteByte(';')
	}
	return Fingerprint(b.String())
}

// writePart length-prefixes s so that concatenated parts stay unambiguous.
func writePart(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteString(s)
}
