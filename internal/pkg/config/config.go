package config

import (
	"io"
	"time"
)

// Config reads typed configuration values by dotted key.
//
// Missing keys yield the type's zero value; callers that need stricter
// behavior should validate at startup.
type Config interface {
	io.Closer

	// GetString retrieves the value associated with the given key as a string.
	GetString(key string) string

	// GetBool retrieves the value associated with the given key as a bool.
	GetBool(key string) bool

	// GetInt retrieves the value associated with the given key as an int.
	GetInt(key string) int

	// GetInt32 retrieves the value associated with the given key as an int32.
	GetInt32(key string) int32

	// GetInt64 retrieves the value associated with the given key as an int64.
	GetInt64(key string) int64

	// GetUint32 retrieves the value associated with the given key as a uint32.
	GetUint32(key string) uint32

	// GetFloat64 retrieves the value associated with the given key as a float64.
	GetFloat64(key string) float64

	// GetSecond retrieves the value associated with the given key as seconds.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the value associated with the given key as minutes.
	GetMinute(key string) time.Duration

	// GetBinary retrieves the value associated with the given key as a byte
	// slice. The stored value is base64 encoded.
	GetBinary(key string) []byte

	// GetArray retrieves the value associated with the given key as a slice of
	// strings. The stored value uses the format <element1>,<element2>,...
	GetArray(key string) []string
}
