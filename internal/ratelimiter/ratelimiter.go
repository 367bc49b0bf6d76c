package ratelimiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces outgoing bot messages per chat.
type RateLimiter struct {
	mu          sync.Mutex
	limiters    map[int64]*rate.Limiter
	privateRate time.Duration
	groupRate   time.Duration
}

func New() *RateLimiter {
	return newRateLimiter(privateChatRate, groupChatRate)
}

func newRateLimiter(privateRate, groupRate time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters:    make(map[int64]*rate.Limiter),
		privateRate: privateRate,
		groupRate:   groupRate,
	}
}

// Wait blocks until a message may be sent to chatID or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, chatID int64) error {
	if err := rl.limiter(chatID).Wait(ctx); err != nil {
		return fmt.Errorf("wait for chat %d: %w", chatID, err)
	}

	return nil
}

func (rl *RateLimiter) limiter(chatID int64) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, ok := rl.limiters[chatID]; ok {
		return l
	}

	if len(rl.limiters) >= maxTrackedChats {
		rl.evictIdle()
	}

	l := rate.NewLimiter(rate.Every(rl.getRate(chatID)), 1)
	rl.limiters[chatID] = l

	return l
}

// evictIdle drops limiters with a full bucket, i.e. chats that could send right now anyway.
func (rl *RateLimiter) evictIdle() {
	now := time.Now()

	for chatID, l := range rl.limiters {
		if l.TokensAt(now) >= 1 {
			delete(rl.limiters, chatID)
		}
	}
}

func (rl *RateLimiter) getRate(chatID int64) time.Duration {
	if chatID < 0 {
		return rl.groupRate
	}
	return rl.privateRate
}
