package service

import (
	"sort"

	"owldoor/models"
)

// LeadIsMatchable is the lead-validity predicate: a lead qualifies for
// matching only when it carries a motivation score or a non-empty wants list.
// Leads failing this are skipped as missing required data and never reach the
// executor.
func LeadIsMatchable(lead *models.Lead) bool {
	return lead.Motivation > 0 || len(lead.Wants) > 0
}

// CandidateScore counts how many of the lead's wants appear in the client's
// preference filters
func CandidateScore(lead *models.Lead, client *models.Client) int {
	if len(lead.Wants) == 0 || len(client.Preferences) == 0 {
		return 0
	}

	prefs := make(map[string]struct{}, len(client.Preferences))
	for _, p := range client.Preferences {
		prefs[p] = struct{}{}
	}

	score := 0
	for _, w := range lead.Wants {
		if _, ok := prefs[w]; ok {
			score++
		}
	}
	return score
}

// EligibleClients returns the clients qualified to receive the lead, in
// decreasing preference score with client ID as the tiebreak. The ordering is
// deterministic and stable across runs so "first sufficient-credit client
// wins" is reproducible for exclusive leads.
//
// A client already holding a match for this lead is filtered again at
// execution time inside the pair transaction; this filter only needs the
// in-memory pools.
func EligibleClients(lead *models.Lead, clients []*models.Client) []*models.Client {
	var eligible []*models.Client
	for _, client := range clients {
		if !client.Active {
			continue
		}
		if !client.CoversLocation(lead.City, lead.State) {
			continue
		}
		eligible = append(eligible, client)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		si, sj := CandidateScore(lead, eligible[i]), CandidateScore(lead, eligible[j])
		if si != sj {
			return si > sj
		}
		return eligible[i].ID < eligible[j].ID
	})

	return eligible
}
