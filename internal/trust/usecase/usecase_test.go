package usecase

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	pq "github.com/pquerna/otp"
	"github.com/curiouspay/trust/internal/pkg/config"
	"github.com/curiouspay/trust/internal/pkg/hash"
	"github.com/curiouspay/trust/internal/pkg/instrument"
	"github.com/curiouspay/trust/internal/pkg/jwt"
	"github.com/curiouspay/trust/internal/pkg/mfa"
	"github.com/curiouspay/trust/internal/pkg/otp"
	"github.com/curiouspay/trust/internal/pkg/uid"
	"github.com/curiouspay/trust/internal/pkg/validator"
	"github.com/curiouspay/trust/internal/trust/entity"
	"github.com/curiouspay/trust/internal/trust/risk"
)

const testAccountID = "acct-1"

type fakeRepo struct {
	mu          sync.Mutex
	enrollments map[string]*entity.Enrollment
	recovery    map[string][]entity.RecoveryCodeRecord
	policy      *entity.RiskPolicy
	attempts    map[string]*entity.AuthorizationAttempt
	nextID      int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		enrollments: make(map[string]*entity.Enrollment),
		recovery:    make(map[string][]entity.RecoveryCodeRecord),
		attempts:    make(map[string]*entity.AuthorizationAttempt),
	}
}

func (f *fakeRepo) GetEnrollment(_ context.Context, accountID string) (*entity.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	enr, ok := f.enrollments[accountID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *enr
	return &cp, nil
}

func (f *fakeRepo) CreateEnrollment(_ context.Context, enr entity.Enrollment, hashes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.enrollments[enr.AccountID] = &enr
	records := make([]entity.RecoveryCodeRecord, len(hashes))
	for i, h := range hashes {
		f.nextID++
		records[i] = entity.RecoveryCodeRecord{ID: f.nextID, AccountID: enr.AccountID, Hash: h}
	}
	f.recovery[enr.AccountID] = records
	return nil
}

func (f *fakeRepo) ConfirmEnrollment(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	enr, ok := f.enrollments[accountID]
	if !ok {
		return entity.ErrNotFound
	}
	enr.Confirmed = true
	return nil
}

func (f *fakeRepo) DeleteEnrollment(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.enrollments, accountID)
	delete(f.recovery, accountID)
	return nil
}

func (f *fakeRepo) AdvanceReplayCursor(_ context.Context, accountID string, step int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	enr, ok := f.enrollments[accountID]
	if !ok {
		return false, entity.ErrNotFound
	}
	if step <= enr.ReplayCursor {
		return false, nil
	}
	enr.ReplayCursor = step
	return true, nil
}

func (f *fakeRepo) GetRecoveryCodes(_ context.Context, accountID string) ([]entity.RecoveryCodeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]entity.RecoveryCodeRecord, len(f.recovery[accountID]))
	copy(out, f.recovery[accountID])
	return out, nil
}

func (f *fakeRepo) ConsumeRecoveryCode(_ context.Context, id int64, accountID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := f.recovery[accountID]
	for i, rec := range records {
		if rec.ID == id {
			f.recovery[accountID] = append(records[:i], records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) GetActivePolicy(_ context.Context) (*entity.RiskPolicy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.policy == nil {
		return nil, entity.ErrNotFound
	}
	cp := *f.policy
	return &cp, nil
}

func (f *fakeRepo) SavePolicy(_ context.Context, policy entity.RiskPolicy) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var version int64 = 1
	if f.policy != nil {
		version = f.policy.Version + 1
	}
	policy.Version = version
	f.policy = &policy
	return version, nil
}

func (f *fakeRepo) CreateAttempt(_ context.Context, att entity.AuthorizationAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attempts[att.ID] = &att
	return nil
}

func (f *fakeRepo) GetAttempt(_ context.Context, id, accountID string) (*entity.AuthorizationAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	att, ok := f.attempts[id]
	if !ok || att.AccountID != accountID {
		return nil, entity.ErrNotFound
	}
	cp := *att
	return &cp, nil
}

func (f *fakeRepo) TransitionAttempt(_ context.Context, id string, from, to entity.AttemptState, factor entity.FactorType) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	att, ok := f.attempts[id]
	if !ok || att.State != from {
		return false, nil
	}
	att.State = to
	att.Factor = factor
	return true, nil
}

const testConfigYAML = `
modules:
  trust:
    authorize_idempotency_ttl_minutes: 10
`

// testClock is a movable clock so tests can step past a consumed TOTP window.
type testClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

func newTestUsecase(t *testing.T) (*Usecase, *fakeRepo, *otp.Engine, *testClock) {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator error: %v", err)
	}

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	if err != nil {
		t.Fatalf("NewViperFromBytes error: %v", err)
	}

	repo := newFakeRepo()
	engine := otp.NewEngine("CuriousPay", 30, 1, pq.DigitsSix)
	clk := &testClock{at: time.Unix(1700000015, 0)}

	uc := New(Dependency{
		RepoDB:       repo,
		Validator:    v,
		Config:       cfg,
		HMAC:         hash.NewHMACSHA256("test-hmac-secret"),
		Argon2ID:     hash.NewArgon2id("test-pepper"),
		MFAEncryptor: mfa.NewAESGCMEncryptor(mfa.StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{0x24}, 32)}),
		RecoveryGen:  mfa.NewRecoveryCode(),
		UUID:         uid.NewUUID(),
		OTPEngine:    engine,
		RiskEngine:   risk.New(),
		Clock:        clk,
		Instrument:   instrument.NewNoop(),
	})

	repo.policy = &entity.RiskPolicy{
		Version:                   1,
		MaxTransactionAmount:      5000,
		RequirePinAboveAmount:     100,
		AllowedCountries:          []string{"US", "GB", "KE"},
		AllowedMerchantCategories: []string{"retail", "food"},
		HighRiskMerchantKeywords:  []string{"crypto", "gambling"},
	}

	return uc, repo, engine, clk
}

func authCtx() context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		AccountID:    testAccountID,
		AccountEmail: "merchant@example.com",
	})
}

// enrollConfirmed enrolls the test account and confirms it with a first TOTP
// code, returning the plaintext secret and recovery codes.
func enrollConfirmed(t *testing.T, uc *Usecase, engine *otp.Engine, at time.Time) (string, []string) {
	t.Helper()

	out, err := uc.Enroll(authCtx(), EnrollInput{})
	if err != nil {
		t.Fatalf("Enroll error: %v", err)
	}

	code, err := engine.CodeAt(out.Secret, engine.Step(at))
	if err != nil {
		t.Fatalf("CodeAt error: %v", err)
	}

	if _, err := uc.VerifyStepUp(authCtx(), VerifyStepUpInput{Code: code}); err != nil {
		t.Fatalf("confirming VerifyStepUp error: %v", err)
	}

	return out.Secret, out.RecoveryCodes
}
