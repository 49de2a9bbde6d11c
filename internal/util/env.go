package util

import (
	"math/big"
	"os"
	"strconv"
	"time"
)

// GetEnv returns the value of the environment variable or the default if unset.
func GetEnv(key string, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// GetEnvAsUint64 returns the env var parsed as uint64 or the default if unset/invalid.
func GetEnvAsUint64(key string, defaultVal uint64) uint64 {
	strVal, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}

	val, err := strconv.ParseUint(strVal, 10, 64)
	if err != nil {
		return defaultVal
	}
	return val
}

// GetEnvAsBool returns the env var parsed as bool or the default if unset/invalid.
func GetEnvAsBool(key string, defaultVal bool) bool {
	strVal, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}

	val, err := strconv.ParseBool(strVal)
	if err != nil {
		return defaultVal
	}
	return val
}

// GetEnvAsDuration returns the env var parsed as a time.Duration (e.g. "500ms",
// "3m") or the default if unset/invalid.
func GetEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	strVal, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}

	val, err := time.ParseDuration(strVal)
	if err != nil {
		return defaultVal
	}
	return val
}

// GetEnvAsBigInt returns the env var parsed as a base-10 big.Int or a copy of
// the default if unset/invalid.
func GetEnvAsBigInt(key string, defaultVal *big.Int) *big.Int {
	strVal, ok := os.LookupEnv(key)
	if !ok {
		return new(big.Int).Set(defaultVal)
	}

	val, ok := new(big.Int).SetString(strVal, 10)
	if !ok {
		return new(big.Int).Set(defaultVal)
	}
	return val
}
