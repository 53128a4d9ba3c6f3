package domain

import "strings"

// PersonaSplit is the heuristic audience breakdown shown next to a party:
// integer percentages for the four conference personas, always summing to 100.
// It is computed from the party's category and focus tags at read time and
// never stored.
// swagger:model PersonaSplit
type PersonaSplit struct {
	Developer int `json:"developer"`
	Publisher int `json:"publisher"`
	Investor  int `json:"investor"`
	Service   int `json:"service_provider"`
}

// personaWeights are unnormalized relative weights used while scoring.
type personaWeights struct {
	developer float64
	publisher float64
	investor  float64
	service   float64
}

func (w personaWeights) add(o personaWeights, scale float64) personaWeights {
	return personaWeights{
		developer: w.developer + o.developer*scale,
		publisher: w.publisher + o.publisher*scale,
		investor:  w.investor + o.investor*scale,
		service:   w.service + o.service*scale,
	}
}

// defaultMixWeights is the split used for generic mixers and anything the
// keyword table does not recognize.
var defaultMixWeights = personaWeights{developer: 40, publisher: 25, investor: 15, service: 20}

type keywordWeights struct {
	keyword string
	weights personaWeights
}

// categoryWeights maps category and focus keywords to base audience weights.
// Keywords are matched as lowercase substrings, in order; the first match
// wins, so more specific keywords sit above the generic ones.
var categoryWeights = []keywordWeights{
	// developer-leaning
	{"hackathon", personaWeights{developer: 80, publisher: 5, investor: 5, service: 10}},
	{"workshop", personaWeights{developer: 65, publisher: 10, investor: 5, service: 20}},
	{"engine", personaWeights{developer: 70, publisher: 10, investor: 5, service: 15}},
	{"indie", personaWeights{developer: 60, publisher: 20, investor: 10, service: 10}},
	{"dev", personaWeights{developer: 70, publisher: 15, investor: 5, service: 10}},
	{"tech", personaWeights{developer: 65, publisher: 15, investor: 10, service: 10}},

	// publisher / business-leaning
	{"publish", personaWeights{developer: 20, publisher: 55, investor: 15, service: 10}},
	{"business", personaWeights{developer: 15, publisher: 45, investor: 25, service: 15}},
	{"b2b", personaWeights{developer: 10, publisher: 45, investor: 20, service: 25}},
	{"deal", personaWeights{developer: 10, publisher: 50, investor: 30, service: 10}},
	{"media", personaWeights{developer: 15, publisher: 50, investor: 10, service: 25}},

	// investor-leaning
	{"invest", personaWeights{developer: 15, publisher: 20, investor: 55, service: 10}},
	{"pitch", personaWeights{developer: 25, publisher: 15, investor: 50, service: 10}},
	{"fund", personaWeights{developer: 15, publisher: 15, investor: 60, service: 10}},
	{"vc", personaWeights{developer: 10, publisher: 15, investor: 65, service: 10}},

	// service-provider-leaning
	{"agency", personaWeights{developer: 15, publisher: 20, investor: 10, service: 55}},
	{"marketing", personaWeights{developer: 10, publisher: 30, investor: 10, service: 50}},
	{"outsourc", personaWeights{developer: 25, publisher: 15, investor: 5, service: 55}},
	{"recruit", personaWeights{developer: 35, publisher: 10, investor: 5, service: 50}},

	// generic social formats fall back toward the default mix
	{"mixer", defaultMixWeights},
	{"party", defaultMixWeights},
	{"network", defaultMixWeights},
}

// Personas computes the heuristic audience split for a category and its focus
// tags. The category keyword contributes full weight; each matching focus tag
// contributes half weight. Unrecognized input yields the default mixer split.
// The result always sums to exactly 100.
func Personas(category string, focusTags []string) PersonaSplit {
	var acc personaWeights
	matched := false

	if w, ok := lookupWeights(category); ok {
		acc = acc.add(w, 1.0)
		matched = true
	}
	for _, tag := range focusTags {
		if w, ok := lookupWeights(tag); ok {
			acc = acc.add(w, 0.5)
			matched = true
		}
	}
	if !matched {
		acc = defaultMixWeights
	}
	return normalize(acc)
}

func lookupWeights(s string) (personaWeights, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return personaWeights{}, false
	}
	for _, kw := range categoryWeights {
		if strings.Contains(s, kw.keyword) {
			return kw.weights, true
		}
	}
	return personaWeights{}, false
}

// normalize converts weights to integer percentages summing to exactly 100
// using largest-remainder rounding. Remainder ties resolve in fixed persona
// order (developer, publisher, investor, service), so output is deterministic.
func normalize(w personaWeights) PersonaSplit {
	total := w.developer + w.publisher + w.investor + w.service
	if total <= 0 {
		w = defaultMixWeights
		total = w.developer + w.publisher + w.investor + w.service
	}

	shares := [4]float64{
		w.developer / total * 100,
		w.publisher / total * 100,
		w.investor / total * 100,
		w.service / total * 100,
	}
	var out [4]int
	sum := 0
	for i, s := range shares {
		out[i] = int(s)
		sum += out[i]
	}
	// Distribute the rounding remainder to the largest fractional parts.
	for sum < 100 {
		best := -1
		bestFrac := -1.0
		for i, s := range shares {
			frac := s - float64(out[i])
			if frac > bestFrac+1e-9 {
				bestFrac = frac
				best = i
			}
		}
		out[best]++
		shares[best] = float64(out[best]) // consume this slot's remainder
		sum++
	}
	return PersonaSplit{Developer: out[0], Publisher: out[1], Investor: out[2], Service: out[3]}
}
