package pipeline

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/evidentia/internal/model"
)

var amountDigits = regexp.MustCompile(`[\d][\d\s.,]*`)

// BuildMeta derives phrasing context for the narrative generator from the
// routed fact set. It is descriptive only: the generator may use these names
// for fluent wording, but they carry no token ids and can never be cited as
// evidence.
func BuildMeta(facts []*model.Fact) *model.Meta {
	meta := &model.Meta{}

	projects := map[string]bool{}
	orgs := map[string]bool{}
	suspects := map[string]bool{}
	victims := map[string]bool{}

	for _, f := range facts {
		for _, v := range f.TokensOfType(model.TokenProjectName) {
			projects[v] = true
		}
		for _, v := range f.TokensOfType(model.TokenPlatformName) {
			projects[v] = true
		}
		for _, v := range f.TokensOfType(model.TokenOrganization) {
			orgs[v] = true
		}
		for _, v := range f.TokensOfType(model.TokenPerson) {
			switch f.Role {
			case model.RoleSuspectAction, model.RoleFraudAction:
				suspects[v] = true
			case model.RoleVictimLoss, model.RoleVictimStatement:
				victims[v] = true
			}
		}
		for _, v := range f.TokensOfType(model.TokenAmount) {
			if amount, ok := parseAmount(v); ok {
				meta.Amounts.Count++
				meta.Amounts.Total += amount
				if amount > meta.Amounts.Max {
					meta.Amounts.Max = amount
				}
			}
		}
	}

	meta.Projects = sortedKeys(projects)
	meta.Organizations = sortedKeys(orgs)
	meta.Suspects = sortedKeys(suspects)
	meta.Victims = sortedKeys(victims)
	return meta
}

// parseAmount pulls the numeric part out of an amount token. Spaces are
// digit grouping; a trailing ",dd" or ".dd" pair is the fractional part.
func parseAmount(value string) (float64, bool) {
	m := amountDigits.FindString(value)
	if m == "" {
		return 0, false
	}
	m = strings.TrimRight(strings.ReplaceAll(m, " ", ""), ".,")

	frac := 0.0
	fracDigits := 0
	if i := strings.LastIndexAny(m, ".,"); i >= 0 && len(m)-i-1 <= 2 {
		for _, r := range m[i+1:] {
			if r < '0' || r > '9' {
				return 0, false
			}
			frac = frac*10 + float64(r-'0')
			fracDigits++
		}
		m = m[:i]
	}
	m = strings.ReplaceAll(strings.ReplaceAll(m, ".", ""), ",", "")
	if m == "" {
		return 0, false
	}

	whole := 0.0
	for _, r := range m {
		if r < '0' || r > '9' {
			return 0, false
		}
		whole = whole*10 + float64(r-'0')
	}
	return whole + frac/math.Pow(10, float64(fracDigits)), true
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
