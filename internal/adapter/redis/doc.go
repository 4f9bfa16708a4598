// Package redis mirrors the committed publication record to Redis.
//
// The mirror is best effort. Every command passes through a circuit breaker hook
// so an unreachable Redis fails fast instead of slowing operator commands.
package redis
