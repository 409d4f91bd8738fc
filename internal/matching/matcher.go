// Package matching attributes income transactions to clients and computes
// agreed/paid/remaining balances.
//
// Attribution has two tiers and the first hit wins:
//
//  1. project: the transaction links a project, and that project's client
//     gets it. This is authoritative.
//  2. name: only when tier 1 misses, the payer (trimmed, case folded) equals
//     exactly one client's name.
//
// When two or more clients share a display name, tier 2 refuses to pick
// one. Such transactions are reported as ambiguous and counted for nobody
// until they carry a project link.
package matching

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
)

// Ambiguity is an income row whose payer names more than one client.
type Ambiguity struct {
	TransactionID int64
	Payer         string
	ClientIDs     []int64
}

// Report is the result of attributing a transaction set.
type Report struct {
	// Balances has one entry per known client, in client order.
	Balances []core.ClientBalance
	// Ambiguous lists income that tier 2 refused to attribute.
	Ambiguous []Ambiguity
	// Unmatched lists income no client claimed.
	Unmatched []int64
	// NearMisses are review hints for unmatched income. They never count.
	NearMisses []NearMiss
	Issues     []core.DataQualityIssue
}

// Balance returns the entry for clientID.
func (r Report) Balance(clientID int64) (core.ClientBalance, bool) {
	for _, b := range r.Balances {
		if b.ClientID == clientID {
			return b, true
		}
	}
	return core.ClientBalance{}, false
}

type Matcher struct {
	clients      []core.Client
	agreed       map[int64]decimal.Decimal
	projectOwner map[int64]int64
	byName       map[string][]int64
}

// NewMatcher indexes clients and their projects.
func NewMatcher(clients []core.Client, projects []core.Project) *Matcher {
	m := &Matcher{
		clients:      append([]core.Client(nil), clients...),
		agreed:       make(map[int64]decimal.Decimal, len(clients)),
		projectOwner: make(map[int64]int64, len(projects)),
		byName:       make(map[string][]int64, len(clients)),
	}
	sort.SliceStable(m.clients, func(i, j int) bool { return m.clients[i].ID < m.clients[j].ID })
	for _, c := range m.clients {
		m.agreed[c.ID] = decimal.Zero
		key := normalize(c.Name)
		if key != "" {
			m.byName[key] = append(m.byName[key], c.ID)
		}
	}
	for _, p := range projects {
		m.projectOwner[p.ID] = p.ClientID
		if total, ok := m.agreed[p.ClientID]; ok {
			m.agreed[p.ClientID] = total.Add(p.AgreedPrice)
		}
	}
	return m
}

// Attribute returns the client a transaction belongs to and the tier that
// decided it. A zero client id with TierNone means nobody claims it;
// candidates is non-empty when tier 2 met a shared display name.
func (m *Matcher) Attribute(tx core.Transaction) (clientID int64, tier core.MatchTier, candidates []int64) {
	if tx.ProjectID != nil {
		if owner, ok := m.projectOwner[*tx.ProjectID]; ok {
			return owner, core.TierProject, nil
		}
	}
	ids := m.byName[normalize(tx.Payer)]
	switch len(ids) {
	case 0:
		return 0, core.TierNone, nil
	case 1:
		return ids[0], core.TierName, nil
	default:
		return 0, core.TierNone, append([]int64(nil), ids...)
	}
}

// Match attributes every income transaction to at most one client.
func (m *Matcher) Match(txs []core.Transaction) Report {
	paid := make(map[int64]decimal.Decimal, len(m.clients))
	matches := make(map[int64][]core.Match, len(m.clients))
	var report Report

	for _, tx := range txs {
		if tx.Kind != core.KindIncome {
			continue
		}
		if issue := tx.Defect(); issue != nil {
			report.Issues = append(report.Issues, *issue)
			continue
		}
		clientID, tier, candidates := m.Attribute(tx)
		switch {
		case len(candidates) > 0:
			report.Ambiguous = append(report.Ambiguous, Ambiguity{TransactionID: tx.ID, Payer: tx.Payer, ClientIDs: candidates})
			continue
		case tier == core.TierNone:
			report.Unmatched = append(report.Unmatched, tx.ID)
			if hint, ok := m.nearMiss(tx); ok {
				report.NearMisses = append(report.NearMisses, hint)
			}
			continue
		}
		if _, known := m.agreed[clientID]; !known {
			// project of a client outside this directory: claimed, not ours
			continue
		}
		paid[clientID] = paid[clientID].Add(tx.Amount)
		matches[clientID] = append(matches[clientID], core.Match{TransactionID: tx.ID, Tier: tier, Amount: tx.Amount})
	}

	report.Balances = make([]core.ClientBalance, 0, len(m.clients))
	for _, c := range m.clients {
		agreed := m.agreed[c.ID]
		p := paid[c.ID]
		report.Balances = append(report.Balances, core.ClientBalance{
			ClientID:    c.ID,
			ClientName:  c.Name,
			AgreedTotal: agreed,
			PaidTotal:   p,
			Remaining:   agreed.Sub(p),
			Matches:     matches[c.ID],
		})
	}
	return report
}

// Balances computes every known client's position.
func (m *Matcher) Balances(txs []core.Transaction) []core.ClientBalance {
	return m.Match(txs).Balances
}

// Balance computes one client's position. ok is false for unknown clients.
func (m *Matcher) Balance(clientID int64, txs []core.Transaction) (core.ClientBalance, bool) {
	return m.Match(txs).Balance(clientID)
}

// dottedI undoes what language-neutral folding leaves of Turkish İ and ı,
// so "İNŞAAT", "inşaat" and "INŞAAT" compare equal.
var dottedI = strings.NewReplacer("i\u0307", "i", "ı", "i")

func normalize(s string) string {
	return dottedI.Replace(cases.Fold().String(strings.TrimSpace(s)))
}
