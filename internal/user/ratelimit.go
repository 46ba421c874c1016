package user

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL    = 10 * time.Minute
	limiterMaxClients = 10000
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// loginLimiter 按客户端 IP 限制登录频率
type loginLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit      rate.Limit
	burst      int
	maxClients int
	now        func() time.Time
}

func newLoginLimiter(perSecond float64, burst int) *loginLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &loginLimiter{
		clients:    make(map[string]*clientLimiter),
		limit:      rate.Limit(perSecond),
		burst:      burst,
		maxClients: limiterMaxClients,
		now:        time.Now,
	}
}

func (l *loginLimiter) allow(r *http.Request) bool {
	if l == nil {
		return true
	}

	key := clientKey(r)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= l.maxClients {
			l.evict(now)
		}
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// evict 先清理空闲的客户端；仍然满额时淘汰最久未出现的那个
func (l *loginLimiter) evict(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(l.clients, key)
			continue
		}
		if oldestKey == "" || c.lastSeen.Before(oldest) {
			oldestKey, oldest = key, c.lastSeen
		}
	}
	if len(l.clients) >= l.maxClients && oldestKey != "" {
		delete(l.clients, oldestKey)
	}
}

// clientKey 使用连接的对端地址；只有开启 TrustProxy 时 RemoteAddr 才会被 RealIP 改写
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
