package main

import (
	"context"
	"time"

	"github.com/curiouspay/trust/internal/app"
)

// @title           CuriousPay Trust API
// @version         1.0
// @description     CuriousPay Trust provides two-factor authentication and transaction risk APIs for the payments dashboard.
// @contact.name    Contact Support
// @contact.email   support@curiouspay.dev
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
