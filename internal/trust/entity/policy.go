package entity

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// RiskPolicy is the versioned configuration consumed by the risk engine.
//
// A policy must pass Validate before it is activated; the engine assumes it
// only ever sees validated policies. Replacement is whole-struct, readers
// never observe a partially updated policy.
type RiskPolicy struct {
	// Version increases by one on every replacement.
	Version int64 `json:"version"`
	// MaxTransactionAmount is the hard cap; amounts above it are denied.
	MaxTransactionAmount float64 `json:"max_transaction_amount"`
	// RequirePinAboveAmount triggers step-up for amounts above it, independent
	// of risk level.
	RequirePinAboveAmount float64 `json:"require_pin_above_amount"`
	// AllowedCountries is an allowlist of ISO 3166-1 alpha-2 codes.
	AllowedCountries []string `json:"allowed_countries"`
	// AllowedMerchantCategories is an allowlist of lowercase category slugs.
	AllowedMerchantCategories []string `json:"allowed_merchant_categories"`
	// HighRiskMerchantKeywords hard-blocks merchants whose name contains one
	// of these (case-insensitive substring).
	HighRiskMerchantKeywords []string `json:"high_risk_merchant_keywords"`

	countries  map[string]struct{}
	categories map[string]struct{}
	keywords   []string
}

// Validate normalizes the policy and rejects malformed configurations.
// It must succeed before the policy is activated; per-transaction evaluation
// never re-validates.
func (p *RiskPolicy) Validate() error {
	if p.MaxTransactionAmount <= 0 {
		return fmt.Errorf("%w: max transaction amount must be positive", ErrInvalidPolicyConfiguration)
	}
	if p.RequirePinAboveAmount < 0 {
		return fmt.Errorf("%w: require pin threshold must not be negative", ErrInvalidPolicyConfiguration)
	}
	if p.RequirePinAboveAmount > p.MaxTransactionAmount {
		return fmt.Errorf("%w: require pin threshold exceeds max transaction amount", ErrInvalidPolicyConfiguration)
	}
	if len(p.AllowedCountries) == 0 {
		return fmt.Errorf("%w: allowed countries must not be empty", ErrInvalidPolicyConfiguration)
	}
	if len(p.AllowedMerchantCategories) == 0 {
		return fmt.Errorf("%w: allowed merchant categories must not be empty", ErrInvalidPolicyConfiguration)
	}

	countries := lo.Uniq(lo.Map(p.AllowedCountries, func(c string, _ int) string {
		return strings.ToUpper(strings.TrimSpace(c))
	}))
	for _, c := range countries {
		if len(c) != 2 || !isAlpha(c) {
			return fmt.Errorf("%w: country %q is not an alpha-2 code", ErrInvalidPolicyConfiguration, c)
		}
	}

	categories := lo.Uniq(lo.Map(p.AllowedMerchantCategories, func(c string, _ int) string {
		return strings.ToLower(strings.TrimSpace(c))
	}))
	if lo.Contains(categories, "") {
		return fmt.Errorf("%w: merchant category must not be blank", ErrInvalidPolicyConfiguration)
	}

	keywords := lo.Uniq(lo.FilterMap(p.HighRiskMerchantKeywords, func(k string, _ int) (string, bool) {
		k = strings.ToLower(strings.TrimSpace(k))
		return k, k != ""
	}))

	p.AllowedCountries = countries
	p.AllowedMerchantCategories = categories
	p.HighRiskMerchantKeywords = keywords

	p.countries = lo.SliceToMap(countries, func(c string) (string, struct{}) { return c, struct{}{} })
	p.categories = lo.SliceToMap(categories, func(c string) (string, struct{}) { return c, struct{}{} })
	p.keywords = keywords

	return nil
}

// AllowsCountry reports allowlist membership. Requires a validated policy.
func (p *RiskPolicy) AllowsCountry(country string) bool {
	_, ok := p.countries[strings.ToUpper(strings.TrimSpace(country))]
	return ok
}

// AllowsCategory reports allowlist membership. Requires a validated policy.
func (p *RiskPolicy) AllowsCategory(category string) bool {
	_, ok := p.categories[strings.ToLower(strings.TrimSpace(category))]
	return ok
}

// KeywordHit reports whether the merchant name contains a high-risk keyword
// as a case-insensitive substring. Requires a validated policy.
func (p *RiskPolicy) KeywordHit(merchantName string) bool {
	name := strings.ToLower(merchantName)
	for _, kw := range p.keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// KeywordNearMiss reports whether the merchant name contains a high-risk
// keyword only after stripping separators ("cry-pto exchange"), i.e. below
// the hard-block threshold. Requires a validated policy.
func (p *RiskPolicy) KeywordNearMiss(merchantName string) bool {
	if p.KeywordHit(merchantName) {
		return false
	}

	var b strings.Builder
	for _, r := range strings.ToLower(merchantName) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	collapsed := b.String()
	for _, kw := range p.keywords {
		if strings.Contains(collapsed, kw) {
			return true
		}
	}
	return false
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
