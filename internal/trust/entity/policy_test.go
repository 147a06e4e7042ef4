package entity

import (
	"errors"
	"testing"
)

func validPolicy() RiskPolicy {
	return RiskPolicy{
		Version:                   1,
		MaxTransactionAmount:      5000,
		RequirePinAboveAmount:     100,
		AllowedCountries:          []string{"US", "GB", "KE"},
		AllowedMerchantCategories: []string{"retail", "food"},
		HighRiskMerchantKeywords:  []string{"crypto", "gambling"},
	}
}

func TestRiskPolicyValidate(t *testing.T) {
	p := validPolicy()
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*RiskPolicy)
	}{
		{"zero max amount", func(p *RiskPolicy) { p.MaxTransactionAmount = 0 }},
		{"negative max amount", func(p *RiskPolicy) { p.MaxTransactionAmount = -1 }},
		{"negative pin threshold", func(p *RiskPolicy) { p.RequirePinAboveAmount = -1 }},
		{"pin threshold above cap", func(p *RiskPolicy) { p.RequirePinAboveAmount = 9000 }},
		{"no countries", func(p *RiskPolicy) { p.AllowedCountries = nil }},
		{"bad country code", func(p *RiskPolicy) { p.AllowedCountries = []string{"USA"} }},
		{"no categories", func(p *RiskPolicy) { p.AllowedMerchantCategories = nil }},
		{"blank category", func(p *RiskPolicy) { p.AllowedMerchantCategories = []string{"  "} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validPolicy()
			tc.mutate(&p)
			if err := p.Validate(); !errors.Is(err, ErrInvalidPolicyConfiguration) {
				t.Fatalf("Validate error = %v, want ErrInvalidPolicyConfiguration", err)
			}
		})
	}
}

func TestRiskPolicyNormalization(t *testing.T) {
	p := RiskPolicy{
		MaxTransactionAmount:      1000,
		RequirePinAboveAmount:     50,
		AllowedCountries:          []string{" us ", "us", "gb"},
		AllowedMerchantCategories: []string{"Retail", "RETAIL", "Food"},
		HighRiskMerchantKeywords:  []string{"Crypto", "", "  "},
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	if len(p.AllowedCountries) != 2 {
		t.Fatalf("countries = %v, want deduped pair", p.AllowedCountries)
	}
	if !p.AllowsCountry("us") || !p.AllowsCountry("GB") {
		t.Fatal("case-insensitive country lookup failed")
	}
	if !p.AllowsCategory("RETAIL") {
		t.Fatal("case-insensitive category lookup failed")
	}
	if p.AllowsCategory("travel") {
		t.Fatal("unlisted category allowed")
	}
	if len(p.HighRiskMerchantKeywords) != 1 {
		t.Fatalf("keywords = %v, want blank entries dropped", p.HighRiskMerchantKeywords)
	}
}

func TestRiskPolicyKeywordMatching(t *testing.T) {
	p := validPolicy()
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	if !p.KeywordHit("Best CRYPTO Exchange") {
		t.Fatal("KeywordHit missed a case-insensitive substring")
	}
	if p.KeywordHit("Corner Store") {
		t.Fatal("KeywordHit on a clean merchant name")
	}

	if !p.KeywordNearMiss("Cry-Pto Exchange") {
		t.Fatal("KeywordNearMiss missed a separator-obfuscated keyword")
	}
	if p.KeywordNearMiss("Best CRYPTO Exchange") {
		t.Fatal("KeywordNearMiss fired on a direct hit")
	}
	if p.KeywordNearMiss("Corner Store") {
		t.Fatal("KeywordNearMiss on a clean merchant name")
	}
}
