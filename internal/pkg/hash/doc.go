// Package hash provides helpers for hashing and verifying secrets.
//
// Recovery codes are stored only as hashes; user input is verified by
// comparing the plaintext against every stored hash in constant time.
// Implementations live in this package behind a small interface.
package hash
