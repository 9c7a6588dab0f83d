package access

import (
	"fmt"
	"strings"

	"github.com/hexforge/hwidgate/internal/duration"
	"github.com/hexforge/hwidgate/internal/models"
)

// Result is the outcome of a role-duration computation.
type Result struct {
	Duration    duration.Value // Effective access duration.
	Description string         // Human-readable explanation of the applied rules.
	Punished    bool           // True when a punishment rule short-circuited the rest.
}

// DefaultDescription labels the fallback duration in user-facing replies.
func DefaultDescription(fallback duration.Value) string {
	return fmt.Sprintf("Default (%s)", duration.Format(fallback))
}

// Compute derives the effective access duration for a member.
//
// Rules whose role the member does not hold are ignored. Punishment rules take
// absolute precedence: the shortest non-lifetime punishment wins (first in
// input order on ties) and base/bonus rules are skipped entirely. Otherwise
// the longest base rule is selected (a lifetime base is terminal and
// suppresses bonuses; with no base rule the fallback acts as the base) and
// every bonus rule is summed on top.
func Compute(memberRoleIDs []string, rules []models.RoleRule, fallback duration.Value) Result {
	held := make(map[string]struct{}, len(memberRoleIDs))
	for _, id := range memberRoleIDs {
		held[id] = struct{}{}
	}

	var active []models.RoleRule
	for _, rule := range rules {
		if _, ok := held[rule.RoleID]; ok {
			active = append(active, rule)
		}
	}
	if len(active) == 0 {
		return Result{Duration: fallback, Description: DefaultDescription(fallback)}
	}

	if result, ok := punishmentResult(active); ok {
		return result
	}

	base := fallback
	baseName := ""
	hasBase := false
	for _, rule := range active {
		if rule.Kind != models.RuleKindBase {
			continue
		}
		value, errParse := duration.Parse(rule.Duration)
		if errParse != nil {
			continue
		}
		if value.Lifetime {
			return Result{
				Duration:    duration.Lifetime(),
				Description: fmt.Sprintf("%s (Lifetime)", rule.RoleName),
			}
		}
		if !hasBase || duration.Less(base, value) {
			base = value
			baseName = rule.RoleName
			hasBase = true
		}
	}

	total := base
	var bonusParts []string
	for _, rule := range active {
		if rule.Kind != models.RuleKindBonus {
			continue
		}
		value, errParse := duration.Parse(rule.Duration)
		if errParse != nil || value.Lifetime {
			continue
		}
		total = duration.Add(total, value)
		bonusParts = append(bonusParts, fmt.Sprintf("+%s (%s)", rule.RoleName, duration.Format(value)))
	}

	description := DefaultDescription(fallback)
	if hasBase {
		description = fmt.Sprintf("%s (%s)", baseName, duration.Format(base))
	}
	if len(bonusParts) > 0 {
		description += " [" + strings.Join(bonusParts, ", ") + "]"
	}
	return Result{Duration: total, Description: description}
}

// punishmentResult selects the shortest non-lifetime punishment rule, if any.
func punishmentResult(active []models.RoleRule) (Result, bool) {
	found := false
	var best duration.Value
	bestName := ""
	for _, rule := range active {
		if rule.Kind != models.RuleKindPunishment {
			continue
		}
		value, errParse := duration.Parse(rule.Duration)
		if errParse != nil || value.Lifetime {
			continue
		}
		if !found || duration.Less(value, best) {
			best = value
			bestName = rule.RoleName
			found = true
		}
	}
	if !found {
		return Result{}, false
	}
	return Result{
		Duration:    best,
		Description: fmt.Sprintf("Punishment: %s (%s)", bestName, duration.Format(best)),
		Punished:    true,
	}, true
}

// KindForRule decides the stored rule kind at write time. A leading "+" on the
// duration token marks a bonus; a role name starting with "punish" marks a
// punishment; everything else is a base rule.
func KindForRule(roleName, durationToken string) string {
	if duration.IsBonus(durationToken) {
		return models.RuleKindBonus
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(roleName)), "punish") {
		return models.RuleKindPunishment
	}
	return models.RuleKindBase
}
