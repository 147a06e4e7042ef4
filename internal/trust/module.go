// Package trust wires the trust module: two-factor enrollment, step-up
// verification, risk evaluation, and transaction authorization.
package trust

import (
	"github.com/curiouspay/trust/internal/pkg/clock"
	"github.com/curiouspay/trust/internal/pkg/config"
	"github.com/curiouspay/trust/internal/pkg/hash"
	"github.com/curiouspay/trust/internal/pkg/idempotency"
	"github.com/curiouspay/trust/internal/pkg/instrument"
	"github.com/curiouspay/trust/internal/pkg/mfa"
	"github.com/curiouspay/trust/internal/pkg/otp"
	"github.com/curiouspay/trust/internal/pkg/router"
	"github.com/curiouspay/trust/internal/pkg/uid"
	"github.com/curiouspay/trust/internal/pkg/validator"
	"github.com/curiouspay/trust/internal/trust/inbound"
	"github.com/curiouspay/trust/internal/trust/outbound/db"
	"github.com/curiouspay/trust/internal/trust/risk"
	"github.com/curiouspay/trust/internal/trust/usecase"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Dependency struct {
	DBConn          *pgxpool.Pool              `validate:"required"`
	Router          *router.Router             `validate:"required"`
	Idempotency     idempotency.Idempotency    `validate:"required"`
	Config          config.Config              `validate:"required"`
	Instrument      instrument.Instrumentation `validate:"required"`
	UID             uid.NumberID               `validate:"required"`
	UUID            uid.StringID               `validate:"required"`
	HMAC            hash.Hash                  `validate:"required"`
	Argon2ID        hash.Hash                  `validate:"required"`
	MFAEncryptor    mfa.Encryptor              `validate:"required"`
	MFARecoveryCode mfa.RecoveryCodeGenerator  `validate:"required"`
	Clock           clock.Clocker              `validate:"required"`
	OTPEngine       *otp.Engine                `validate:"required"`
	Validator       validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.UID, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:       repoDB,
		Idempotency:  dep.Idempotency,
		Validator:    dep.Validator,
		Config:       dep.Config,
		HMAC:         dep.HMAC,
		Argon2ID:     dep.Argon2ID,
		MFAEncryptor: dep.MFAEncryptor,
		RecoveryGen:  dep.MFARecoveryCode,
		UUID:         dep.UUID,
		OTPEngine:    dep.OTPEngine,
		RiskEngine:   risk.New(),
		Clock:        dep.Clock,
		Instrument:   dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
