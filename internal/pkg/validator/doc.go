// Package validator wraps struct validation behind a small interface.
//
// Usecase input structs declare their rules with `validate` tags; handlers
// never validate by hand. A custom "otpcode" rule covers the 6-digit numeric
// codes used in step-up verification.
package validator
