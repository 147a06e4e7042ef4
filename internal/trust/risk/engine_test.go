package risk

import (
	"testing"

	"github.com/curiouspay/trust/internal/trust/entity"
)

func testPolicy(t *testing.T) *entity.RiskPolicy {
	t.Helper()

	p := &entity.RiskPolicy{
		Version:                   1,
		MaxTransactionAmount:      5000,
		RequirePinAboveAmount:     100,
		AllowedCountries:          []string{"US", "GB", "KE"},
		AllowedMerchantCategories: []string{"retail", "food"},
		HighRiskMerchantKeywords:  []string{"crypto", "gambling"},
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	return p
}

func request(amount float64) entity.TransactionRequest {
	return entity.TransactionRequest{
		Amount:           amount,
		MerchantName:     "CornerStore",
		MerchantCategory: "retail",
		Country:          "KE",
		TransactionType:  "payment",
		CardLast4:        "4242",
	}
}

func TestEvaluateSmallApprovedWithStepUp(t *testing.T) {
	d := New().Evaluate(request(150), testPolicy(t))

	if !d.Approved {
		t.Fatalf("Approved = false, reason %q", d.Reason)
	}
	if !d.RequiresStepUp {
		t.Fatal("RequiresStepUp = false, want true for 150 > 100")
	}
	if d.RiskLevel != entity.RiskLevelLow {
		t.Fatalf("RiskLevel = %s, want low", d.RiskLevel)
	}
}

func TestEvaluateAmountOverCapDenied(t *testing.T) {
	d := New().Evaluate(request(6000), testPolicy(t))

	if d.Approved {
		t.Fatal("Approved = true for amount over cap")
	}
	if d.Reason != ReasonAmountExceedsLimit {
		t.Fatalf("Reason = %q, want %q", d.Reason, ReasonAmountExceedsLimit)
	}
	if d.RiskLevel != entity.RiskLevelHigh {
		t.Fatalf("RiskLevel = %s, want high", d.RiskLevel)
	}
	if d.RequiresStepUp {
		t.Fatal("RequiresStepUp = true on a denial")
	}
}

func TestEvaluateHighBandApproved(t *testing.T) {
	// 90% of cap: approved, top amount band, step-up
	d := New().Evaluate(request(4500), testPolicy(t))

	if !d.Approved {
		t.Fatalf("Approved = false, reason %q", d.Reason)
	}
	if d.RiskLevel != entity.RiskLevelHigh {
		t.Fatalf("RiskLevel = %s, want high", d.RiskLevel)
	}
	if d.Score < levelHighAt {
		t.Fatalf("Score = %d, want >= %d; the top amount band alone must reach high", d.Score, levelHighAt)
	}
	if !d.RequiresStepUp {
		t.Fatal("RequiresStepUp = false, want true")
	}
}

func TestEvaluateReasonPriority(t *testing.T) {
	p := testPolicy(t)

	// amount and country both violated: amount wins
	req := request(6000)
	req.Country = "RU"
	if d := New().Evaluate(req, p); d.Reason != ReasonAmountExceedsLimit {
		t.Fatalf("Reason = %q, want %q", d.Reason, ReasonAmountExceedsLimit)
	}

	// category and country both violated: category wins
	req = request(150)
	req.MerchantCategory = "travel"
	req.Country = "RU"
	if d := New().Evaluate(req, p); d.Reason != ReasonCategoryNotAllowed {
		t.Fatalf("Reason = %q, want %q", d.Reason, ReasonCategoryNotAllowed)
	}

	// country and keyword both violated: country wins
	req = request(150)
	req.Country = "RU"
	req.MerchantName = "Crypto Palace"
	if d := New().Evaluate(req, p); d.Reason != ReasonCountryNotAllowed {
		t.Fatalf("Reason = %q, want %q", d.Reason, ReasonCountryNotAllowed)
	}

	// keyword alone
	req = request(150)
	req.MerchantName = "Crypto Palace"
	if d := New().Evaluate(req, p); d.Reason != ReasonHighRiskMerchant {
		t.Fatalf("Reason = %q, want %q", d.Reason, ReasonHighRiskMerchant)
	}
}

func TestEvaluateNonPositiveAmount(t *testing.T) {
	d := New().Evaluate(request(0), testPolicy(t))

	if d.Approved {
		t.Fatal("Approved = true for zero amount")
	}
	if d.Reason != ReasonAmountNotPositive {
		t.Fatalf("Reason = %q, want %q", d.Reason, ReasonAmountNotPositive)
	}
}

func TestEvaluateScoreMonotonicInAmount(t *testing.T) {
	p := testPolicy(t)
	e := New()

	prev := -1
	for _, amount := range []float64{50, 500, 1001, 2000, 2501, 3500, 4001, 4999} {
		d := e.Evaluate(request(amount), p)
		if !d.Approved {
			t.Fatalf("Approved = false at amount %v", amount)
		}
		if d.Score < prev {
			t.Fatalf("score dropped to %d at amount %v (was %d)", d.Score, amount, prev)
		}
		prev = d.Score
	}
}

func TestEvaluateNearMissAndExternalSignal(t *testing.T) {
	p := testPolicy(t)
	e := New()

	req := request(150)
	req.MerchantName = "Cry-Pto Corner"
	d := e.Evaluate(req, p)
	if !d.Approved {
		t.Fatalf("Approved = false, reason %q", d.Reason)
	}
	if d.RiskLevel != entity.RiskLevelMedium {
		t.Fatalf("RiskLevel = %s, want medium for near-miss alone", d.RiskLevel)
	}

	req.ExternalRiskScore = 2
	d = e.Evaluate(req, p)
	if d.RiskLevel != entity.RiskLevelHigh {
		t.Fatalf("RiskLevel = %s, want high with external signal", d.RiskLevel)
	}
}
