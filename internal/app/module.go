package app

import (
	"log/slog"
	"os"

	"github.com/curiouspay/trust/internal/trust"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.trust.enabled") {
		if err := trust.New(trust.Dependency{
			DBConn:          a.dbConn,
			Router:          a.router,
			Idempotency:     a.idemp,
			Config:          a.config,
			Instrument:      a.ins,
			UID:             a.uid,
			UUID:            a.uuid,
			HMAC:            a.hmac,
			Argon2ID:        a.argon2id,
			MFAEncryptor:    a.mfaEncryptor,
			MFARecoveryCode: a.mfaRecoveryCode,
			Clock:           a.clock,
			OTPEngine:       a.otpEngine,
			Validator:       a.validator,
		}); err != nil {
			slog.Error("failed to init module trust", "error", err)
			os.Exit(1)
		}
	}
}
