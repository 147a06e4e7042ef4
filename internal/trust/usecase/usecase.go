// Package usecase implements the trust layer operations: two-factor
// enrollment, step-up verification, transaction risk evaluation, and the
// authorization state machine that ties them together.
package usecase

import (
	"context"
	"sync"

	"github.com/curiouspay/trust/internal/pkg/clock"
	"github.com/curiouspay/trust/internal/pkg/config"
	"github.com/curiouspay/trust/internal/pkg/goerror"
	"github.com/curiouspay/trust/internal/pkg/hash"
	"github.com/curiouspay/trust/internal/pkg/idempotency"
	"github.com/curiouspay/trust/internal/pkg/instrument"
	"github.com/curiouspay/trust/internal/pkg/jwt"
	"github.com/curiouspay/trust/internal/pkg/mfa"
	"github.com/curiouspay/trust/internal/pkg/otp"
	"github.com/curiouspay/trust/internal/pkg/uid"
	"github.com/curiouspay/trust/internal/pkg/validator"
	"github.com/curiouspay/trust/internal/trust/entity"
	"github.com/curiouspay/trust/internal/trust/risk"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

type repoDB interface {
	GetEnrollment(ctx context.Context, accountID string) (*entity.Enrollment, error)
	CreateEnrollment(ctx context.Context, enr entity.Enrollment, recoveryHashes []string) error
	ConfirmEnrollment(ctx context.Context, accountID string) error
	DeleteEnrollment(ctx context.Context, accountID string) error
	AdvanceReplayCursor(ctx context.Context, accountID string, step int64) (bool, error)

	GetRecoveryCodes(ctx context.Context, accountID string) ([]entity.RecoveryCodeRecord, error)
	ConsumeRecoveryCode(ctx context.Context, id int64, accountID string) (bool, error)

	GetActivePolicy(ctx context.Context) (*entity.RiskPolicy, error)
	SavePolicy(ctx context.Context, policy entity.RiskPolicy) (int64, error)

	CreateAttempt(ctx context.Context, att entity.AuthorizationAttempt) error
	GetAttempt(ctx context.Context, id, accountID string) (*entity.AuthorizationAttempt, error)
	TransitionAttempt(ctx context.Context, id string, from, to entity.AttemptState, factor entity.FactorType) (bool, error)
}

// Usecase carries every dependency of the trust operations. All fields are
// injected; there is no package-level state.
type Usecase struct {
	repoDB       repoDB
	idemp        idempotency.Idempotency
	validator    validator.Validator
	cfg          config.Config
	hmac         hash.Hash
	argon2id     hash.Hash
	mfaEncryptor mfa.Encryptor
	recoveryGen  mfa.RecoveryCodeGenerator
	uuid         uid.StringID
	engine       *otp.Engine
	riskEngine   *risk.Engine
	clock        clock.Clocker
	ins          instrument.Instrumentation

	// activePolicy caches the validated policy; replaced wholesale so readers
	// never see a half-updated policy.
	activePolicy atomic.Pointer[entity.RiskPolicy]

	// cursors short-circuits replayed codes before the database round trip.
	// The stored replay cursor stays authoritative; this cache only ever lags
	// behind it. One int64 entry per account seen by this process, dropped
	// only when two-factor is disabled, so it grows with the active account
	// set over the process lifetime.
	cursors sync.Map // accountID -> *otp.Cursor
}

// Dependency lists the constructor inputs for Usecase.
type Dependency struct {
	RepoDB       repoDB
	Idempotency  idempotency.Idempotency
	Validator    validator.Validator
	Config       config.Config
	HMAC         hash.Hash
	Argon2ID     hash.Hash
	MFAEncryptor mfa.Encryptor
	RecoveryGen  mfa.RecoveryCodeGenerator
	UUID         uid.StringID
	OTPEngine    *otp.Engine
	RiskEngine   *risk.Engine
	Clock        clock.Clocker
	Instrument   instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:       dep.RepoDB,
		idemp:        dep.Idempotency,
		validator:    dep.Validator,
		cfg:          dep.Config,
		hmac:         dep.HMAC,
		argon2id:     dep.Argon2ID,
		mfaEncryptor: dep.MFAEncryptor,
		recoveryGen:  dep.RecoveryGen,
		uuid:         dep.UUID,
		engine:       dep.OTPEngine,
		riskEngine:   dep.RiskEngine,
		clock:        dep.Clock,
		ins:          dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("trust.usecase").Start(ctx, name)
}

func (s *Usecase) cursor(accountID string) *otp.Cursor {
	v, _ := s.cursors.LoadOrStore(accountID, otp.NewCursor(0))
	return v.(*otp.Cursor)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}
