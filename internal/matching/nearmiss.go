package matching

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
)

// maxNearMissDistance is the largest edit distance still worth a review hint.
const maxNearMissDistance = 2

// NearMiss flags unmatched income whose payer looks like a client name,
// typically a legal-suffix variant or a typo.
type NearMiss struct {
	TransactionID int64
	Payer         string
	ClientID      int64
	ClientName    string
	Distance      int
}

var legalSuffixes = map[string]struct{}{
	"ltd": {}, "limited": {}, "llc": {}, "inc": {}, "corp": {}, "co": {},
	"gmbh": {}, "ag": {}, "sa": {}, "srl": {}, "bv": {},
	"as": {}, "a.ş": {}, "aş": {}, "şti": {}, "sti": {}, "san": {}, "tic": {},
}

// nearMiss returns the closest client name to tx's payer, if any is close
// enough. It only produces hints and never changes attribution.
func (m *Matcher) nearMiss(tx core.Transaction) (NearMiss, bool) {
	payer := stripLegal(normalize(tx.Payer))
	if payer == "" {
		return NearMiss{}, false
	}
	best := NearMiss{Distance: maxNearMissDistance + 1}
	for _, c := range m.clients {
		name := stripLegal(normalize(c.Name))
		if name == "" {
			continue
		}
		d := levenshtein.ComputeDistance(payer, name)
		if d < best.Distance {
			best = NearMiss{TransactionID: tx.ID, Payer: tx.Payer, ClientID: c.ID, ClientName: c.Name, Distance: d}
		}
	}
	if best.Distance > maxNearMissDistance {
		return NearMiss{}, false
	}
	return best, true
}

// stripLegal drops punctuation and trailing company-form words.
func stripLegal(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '-'
	})
	for len(words) > 1 {
		last := strings.TrimSuffix(words[len(words)-1], ".")
		if _, ok := legalSuffixes[last]; !ok {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}
