package httpserver

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

const (
	connectionLimiterIdle    = 10 * time.Minute
	connectionLimiterCleanup = 5 * time.Minute
)

// LimitReason describes why a display connection was refused.
type LimitReason string

const (
	LimitReasonPerIP LimitReason = "per_ip_limit"
	LimitReasonRate  LimitReason = "rate_limit"
)

// connectionLimiter caps concurrent display sockets per IP and the rate at
// which one IP may open new ones. The total is enforced by the hub.
type connectionLimiter struct {
	mu    sync.Mutex
	clock clockwork.Clock

	maxPerIP int
	open     map[string]int

	rate      rate.Limit
	burst     int
	buckets   map[string]*bucket
	cleanupAt time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newConnectionLimiter(clock clockwork.Clock, maxPerIP int, connectsPerSecond float64, burst int) *connectionLimiter {
	return &connectionLimiter{
		clock:     clock,
		maxPerIP:  maxPerIP,
		open:      make(map[string]int),
		rate:      rate.Limit(connectsPerSecond),
		burst:     burst,
		buckets:   make(map[string]*bucket),
		cleanupAt: clock.Now().Add(connectionLimiterCleanup),
	}
}

// Acquire reserves a slot for ip. Release must be called once the socket closes.
func (l *connectionLimiter) Acquire(ip string) (bool, LimitReason) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.After(l.cleanupAt) {
		l.cleanup(now)
		l.cleanupAt = now.Add(connectionLimiterCleanup)
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	if !b.limiter.AllowN(now, 1) {
		return false, LimitReasonRate
	}

	if l.open[ip] >= l.maxPerIP {
		return false, LimitReasonPerIP
	}
	l.open[ip]++
	return true, ""
}

func (l *connectionLimiter) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n := l.open[ip]; n > 1 {
		l.open[ip] = n - 1
	} else {
		delete(l.open, ip)
	}
}

// Count returns the open sockets held by ip.
func (l *connectionLimiter) Count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open[ip]
}

func (l *connectionLimiter) trackedIPs() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// cleanup drops idle buckets. Caller holds mu.
func (l *connectionLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-connectionLimiterIdle)
	for ip, b := range l.buckets {
		if b.lastSeen.Before(cutoff) && l.open[ip] == 0 {
			delete(l.buckets, ip)
		}
	}
}
