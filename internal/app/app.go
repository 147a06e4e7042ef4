// Package app wires dependencies and manages the service lifecycle.
package app

import (
	"context"
	"net/http"

	"github.com/curiouspay/trust/internal/pkg/clock"
	"github.com/curiouspay/trust/internal/pkg/config"
	"github.com/curiouspay/trust/internal/pkg/hash"
	"github.com/curiouspay/trust/internal/pkg/idempotency"
	"github.com/curiouspay/trust/internal/pkg/instrument"
	"github.com/curiouspay/trust/internal/pkg/jwt"
	"github.com/curiouspay/trust/internal/pkg/mfa"
	"github.com/curiouspay/trust/internal/pkg/otp"
	"github.com/curiouspay/trust/internal/pkg/router"
	"github.com/curiouspay/trust/internal/pkg/uid"
	"github.com/curiouspay/trust/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	validator       validator.Validator
	clock           clock.Clocker
	hmac            hash.Hash
	argon2id        hash.Hash
	uid             uid.NumberID
	uuid            uid.StringID
	otpEngine       *otp.Engine
	jwt             jwt.JWT
	mfaEncryptor    mfa.Encryptor
	mfaRecoveryCode mfa.RecoveryCodeGenerator

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
