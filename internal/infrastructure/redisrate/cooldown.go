package redisrate

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const allowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

// Cooldown throttles OTP sends per email with a fixed window counter.
// It degrades open: with no Redis configured, or on Redis errors, every
// request is allowed so a cache outage cannot lock users out.
type Cooldown struct {
	client evaler
	window time.Duration
	max    int
	prefix string
}

type evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

func NewCooldown(client *redis.Client, window time.Duration, max int) *Cooldown {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &Cooldown{
		client: client,
		window: window,
		max:    max,
		prefix: "otp:cooldown:",
	}
}

// Allow reports whether another OTP may be sent for the given email.
func (c *Cooldown) Allow(email string) bool {
	if c == nil || c.client == nil {
		return true
	}
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(c.window.Seconds())
	count, err := c.client.Eval(ctx, allowScript, []string{c.prefix + key}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= c.max
}
