// Package route partitions filtered facts into primary/secondary/reserve
// priority tiers under fixed size budgets. The returned order is the tier
// order, a priority signal rather than a chronological one.
package route

import (
	"sort"

	"github.com/ppiankov/evidentia/internal/model"
)

// roleAliases normalizes near-synonym roles produced by older extraction
// vocabularies onto the canonical enum.
var roleAliases = map[model.Role]model.Role{
	"fraud_flag":     model.RoleFraudEvent,
	"invest_flag":    model.RoleInvestmentEvent,
	"role_suspect":   model.RoleSuspectAction,
	"role_organizer": model.RoleSuspectAction,
	"role_victim":    model.RoleVictimLoss,
	"role_witness":   model.RoleRoleStatement,
	"entity":         model.RoleEntityReference,
	"project":        model.RoleEntityReference,
	"platform":       model.RoleEntityReference,
	"organization":   model.RoleEntityReference,
	"crypto":         model.RoleCryptoOperation,
	"crypto_flag":    model.RoleCryptoOperation,
	"account":        model.RoleDigitalTransfer,
	"channel":        model.RoleDigitalTransfer,
	"scheme":         model.RoleSchemeMarker,
	"scheme_flag":    model.RoleSchemeMarker,
	"economic_flag":  model.RoleEconomicAction,
	"money":          model.RoleDigitalTransfer,
	"money_transfer": model.RoleDigitalTransfer,
}

// blockedRoles are almost always useless for the narrative.
var blockedRoles = map[model.Role]bool{
	model.RoleGenericFact:     true,
	model.RoleRoleStatement:   true,
	model.RoleVictimStatement: true,
	"address_only":            true,
}

// safetyNetTypes rescue a blocked or unknown role: role derivation is
// heuristic and must not silently discard high-value evidence.
var safetyNetTypes = []model.TokenType{
	model.TokenAmount, model.TokenProjectName, model.TokenPlatformName,
	model.TokenCryptoAddress, model.TokenCryptoFlag, model.TokenChannel,
	model.TokenAccount, model.TokenSchemeFlag, model.TokenFraudFlag,
	model.TokenInvestFlag,
}

// rolePriority orders roles for the primary tier; lower is more important.
var rolePriority = map[model.Role]int{
	model.RoleSuspectAction:     1,
	model.RoleFraudAction:       2,
	model.RoleFraudEvent:        3,
	model.RoleSchemeMarker:      4,
	model.RoleInvestmentEvent:   5,
	model.RoleInvestmentContext: 6,
	model.RoleCryptoOperation:   7,
	model.RoleEconomicAction:    8,
	model.RoleDigitalTransfer:   8,
	model.RoleVictimLoss:        9,
	model.RoleAdminAction:       10,
	model.RoleEntityReference:   11,
}

const unknownRolePriority = 99

// boostTokens weight token types when ranking within a tier.
var boostTokens = map[model.TokenType]int{
	model.TokenAmount:        18,
	model.TokenFraudFlag:     14,
	model.TokenInvestFlag:    12,
	model.TokenSchemeFlag:    12,
	model.TokenCryptoFlag:    12,
	model.TokenCryptoAddress: 12,
	model.TokenProjectName:   10,
	model.TokenPlatformName:  10,
	model.TokenChannel:       8,
	model.TokenAccount:       8,
	model.TokenEconomicFlag:  8,
	model.TokenOrganization:  8,
	model.TokenAdminFlag:     6,
	model.TokenArticleRef:    5,
	model.TokenDate:          3,
}

// Router routes facts into priority tiers.
type Router struct {
	cfg model.RouterConfig
}

// New creates a router with the given budgets.
func New(cfg model.RouterConfig) *Router {
	return &Router{cfg: cfg}
}

// Route partitions facts into tiers. targetArticle is an optional hint; an
// empty string means the statute is not known in advance, and the router
// must work without it. The input is never mutated: every returned fact is
// a copy annotated with its routing group.
func (r *Router) Route(facts []*model.Fact, targetArticle string) []*model.Fact {
	if len(facts) == 0 {
		return []*model.Fact{}
	}

	admitted := make([]*model.Fact, 0, len(facts))
	for _, f := range facts {
		c := f.Clone()
		if alias, ok := roleAliases[c.Role]; ok {
			c.Role = alias
		}

		if blockedRoles[c.Role] || !knownRole(c.Role) {
			if c.HasTokenType(safetyNetTypes...) {
				admitted = append(admitted, c)
				continue
			}
			// fraud/pyramid cases keep unclassified context facts
			if !blockedRoles[c.Role] && (targetArticle == "190" || targetArticle == "217") {
				admitted = append(admitted, c)
			}
			continue
		}
		admitted = append(admitted, c)
	}

	if len(admitted) == 0 {
		return []*model.Fact{}
	}

	var strong, weak []*model.Fact
	for _, f := range admitted {
		if f.Confidence >= r.cfg.StrongConfidence {
			strong = append(strong, f)
		} else {
			weak = append(weak, f)
		}
	}

	sort.SliceStable(strong, func(i, j int) bool {
		a, b := strong[i], strong[j]
		pa, pb := priorityOf(a.Role), priorityOf(b.Role)
		if pa != pb {
			return pa < pb
		}
		if ba, bb := tokenBoost(a), tokenBoost(b); ba != bb {
			return ba > bb
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.FactID < b.FactID
	})
	sort.SliceStable(weak, func(i, j int) bool {
		if ba, bb := tokenBoost(weak[i]), tokenBoost(weak[j]); ba != bb {
			return ba > bb
		}
		return weak[i].FactID < weak[j].FactID
	})

	primary := take(strong, r.cfg.MaxPrimary)

	// strong facts over the primary budget outrank every weak fact
	rest := append(strong[len(primary):], weak...)
	secondary := take(rest, r.cfg.MaxSecondary)
	reserve := take(rest[len(secondary):], r.cfg.MaxReserve)

	annotate(primary, model.GroupPrimary)
	annotate(secondary, model.GroupSecondary)
	annotate(reserve, model.GroupReserve)

	result := make([]*model.Fact, 0, len(primary)+len(secondary)+len(reserve))
	result = append(result, primary...)
	result = append(result, secondary...)
	result = append(result, reserve...)
	return take(result, r.cfg.MaxTotal)
}

func knownRole(role model.Role) bool {
	switch role {
	case model.RoleSuspectAction, model.RoleFraudAction, model.RoleFraudEvent,
		model.RoleInvestmentEvent, model.RoleInvestmentContext,
		model.RoleSchemeMarker, model.RoleEntityReference,
		model.RoleAdminAction, model.RoleCryptoOperation,
		model.RoleDigitalTransfer, model.RoleEconomicAction,
		model.RoleVictimLoss:
		return true
	}
	return false
}

func priorityOf(role model.Role) int {
	if p, ok := rolePriority[role]; ok {
		return p
	}
	return unknownRolePriority
}

func tokenBoost(f *model.Fact) int {
	boost := 0
	for _, t := range f.Tokens {
		boost += boostTokens[t.Type]
	}
	return boost
}

func take(facts []*model.Fact, max int) []*model.Fact {
	if max > 0 && len(facts) > max {
		return facts[:max]
	}
	return facts
}

func annotate(facts []*model.Fact, group model.RoutingGroup) {
	for _, f := range facts {
		f.RoutingGroup = group
	}
}
