package story

import "strings"

type HistoricalPeriod struct {
	Name     string
	From, To int
	Keywords []string
}

var _historicalPeriods = []HistoricalPeriod{
	{Name: "wartime", From: 1940, To: 1945, Keywords: []string{"krig", "okkupasjon", "motstand"}},
	{Name: "reconstruction", From: 1945, To: 1960, Keywords: []string{"gjenoppbygging", "Marshall-hjelp"}},
	{Name: "welfare", From: 1960, To: 1980, Keywords: []string{"velferdssamfunn", "folketrygd"}},
	{Name: "oil", From: 1970, To: 1990, Keywords: []string{"oljeeventyret", "Nordsjøen"}},
}

var _childhoodByDecade = map[int][]string{
	1930: {"radiolytting", "hjemmebakte brød", "utedass"},
	1940: {"rasjonering", "luftverndrøvelser", "hjemmefront"},
	1950: {"nye hus", "kylling på søndager", "første bil"},
	1960: {"TV kommer", "feriekroer", "moped"},
}

var _regions = map[string][]string{
	"nord": {"midnattsol", "fiske", "nordlys"},
	"vest": {"fjorder", "regn", "sjø"},
	"øst":  {"skog", "innsjøer", "Østfold"},
	"sør":  {"skjærgård", "sommer", "båt"},
}

// formative years are birth up to this age
const _formativeYears = 30

func HistoricalPeriods() []HistoricalPeriod {
	out := make([]HistoricalPeriod, len(_historicalPeriods))
	copy(out, _historicalPeriods)
	return out
}

// PeriodsForBirthYear returns the periods overlapping the first thirty years
// of someone's life. Unknown birth years yield nothing.
func PeriodsForBirthYear(birthYear int) []HistoricalPeriod {
	if birthYear <= 0 {
		return nil
	}
	end := birthYear + _formativeYears

	var periods []HistoricalPeriod
	for _, p := range _historicalPeriods {
		if p.From <= end && p.To >= birthYear {
			periods = append(periods, p)
		}
	}
	return periods
}

// ChildhoodMemories returns everyday references for the decade someone was
// a child in (ages 0-9 fall in the birth decade).
func ChildhoodMemories(birthYear int) []string {
	return _childhoodByDecade[birthYear/10*10]
}

// RegionHints matches a free-form region ("Nord-Norge", "Vestlandet") to
// one of the four broad regions.
func RegionHints(region string) []string {
	r := strings.ToLower(strings.TrimSpace(region))
	if r == "" {
		return nil
	}
	for k, hints := range _regions {
		if strings.HasPrefix(r, k) {
			return hints
		}
	}
	return nil
}
