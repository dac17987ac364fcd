package audio

import "fmt"

// ----- Envelope Kind ----- //

// EnvelopeKind selects which shared parameter set an envelope reads.
type EnvelopeKind int

const (
	EnvelopeVolume EnvelopeKind = iota
	EnvelopeFM
	EnvelopeFilter
	numEnvelopeKinds
)

var envelopeKindNames = [numEnvelopeKinds]string{
	EnvelopeVolume: "volume",
	EnvelopeFM:     "fm",
	EnvelopeFilter: "filter",
}

func (k EnvelopeKind) String() string {
	if k < 0 || k >= numEnvelopeKinds {
		return fmt.Sprintf("EnvelopeKind(%d)", int(k))
	}
	return envelopeKindNames[k]
}

func envelopeKindFromString(s string) (EnvelopeKind, error) {
	for k, name := range envelopeKindNames {
		if name == s {
			return EnvelopeKind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown envelope %q", s)
}
