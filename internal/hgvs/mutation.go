package hgvs

// Kind is the coordinate system of an HGVS name: the letter before the dot.
type Kind byte

const (
	KindCoding    Kind = 'c'
	KindNonCoding Kind = 'n'
	KindGenomic   Kind = 'g'
	KindMito      Kind = 'm'
	KindRNA       Kind = 'r'
)

func (k Kind) String() string {
	return string(rune(k))
}

// IsTranscript reports whether coordinates of this kind are relative to a
// transcript rather than a reference sequence.
func (k Kind) IsTranscript() bool {
	return k == KindCoding || k == KindNonCoding || k == KindRNA
}

func parseKind(b byte) (Kind, bool) {
	switch k := Kind(b); k {
	case KindCoding, KindNonCoding, KindGenomic, KindMito, KindRNA:
		return k, true
	}
	return 0, false
}

// MutationType is the closed set of edit operations a name can describe.
type MutationType int

const (
	Substitution MutationType = iota + 1
	Deletion
	Insertion
	Duplication
	DelIns
	Inversion
	Identity
)

var mutationTypeNames = map[MutationType]string{
	Substitution: ">",
	Deletion:     "del",
	Insertion:    "ins",
	Duplication:  "dup",
	DelIns:       "delins",
	Inversion:    "inv",
	Identity:     "=",
}

func (m MutationType) String() string {
	if s, ok := mutationTypeNames[m]; ok {
		return s
	}
	return "unknown"
}
