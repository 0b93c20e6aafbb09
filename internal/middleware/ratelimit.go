package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/tastebuddiez/internal/model"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate        rate.Limit    // API全般のレート（req/sec）
	GeneralBurst       int           // API全般のバーストサイズ
	ListingCreateRate  rate.Limit    // 出品作成のレート（req/sec）
	ListingCreateBurst int           // 出品作成のバーストサイズ
	CleanupInterval    time.Duration // 期限切れエントリのクリーンアップ間隔
}

// RateLimiterConfigPerMinute は1分あたりのリクエスト数からRateLimiterConfigを組み立てる。
// バーストサイズは1分あたりのリクエスト数と同じにする。
func RateLimiterConfigPerMinute(generalPerMin, listingCreatePerMin int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:        rate.Limit(float64(generalPerMin) / 60.0),
		GeneralBurst:       generalPerMin,
		ListingCreateRate:  rate.Limit(float64(listingCreatePerMin) / 60.0),
		ListingCreateBurst: listingCreatePerMin,
		CleanupInterval:    5 * time.Minute,
	}
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min、出品作成 10 req/min。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfigPerMinute(120, 10)
}

// keyedLimiter はキーごとのレートリミッターと最終アクセス時刻を保持する。
type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterSet は同じレート設定を共有するキー別リミッターの集合。
type limiterSet struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	entries map[string]*keyedLimiter
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{limit: limit, burst: burst, entries: make(map[string]*keyedLimiter)}
}

// allow はキーのリミッターからトークンを1つ消費できるかを返す。
func (s *limiterSet) allow(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &keyedLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = e
	}
	e.lastAccess = now
	return e.limiter.AllowN(now, 1)
}

// prune は最終アクセスからttl以上経過したエントリを削除する。
func (s *limiterSet) prune(ttl time.Duration, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if now.Sub(e.lastAccess) > ttl {
			delete(s.entries, key)
		}
	}
}

func (s *limiterSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RateLimiter はクライアントごとのレート制限を管理する。
// API全般のレート制限と出品作成のレート制限の2種類を提供する。
type RateLimiter struct {
	config        RateLimiterConfig
	logger        *slog.Logger
	general       *limiterSet
	listingCreate *limiterSet
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		config:        config,
		logger:        logger,
		general:       newLimiterSet(config.GeneralRate, config.GeneralBurst),
		listingCreate: newLimiterSet(config.ListingCreateRate, config.ListingCreateBurst),
		stopCh:        make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。複数回呼んでもよい。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// GeneralMiddleware はAPI全般のレート制限ミドルウェアを返す。
// 認証済みのリクエストはユーザーID、未認証のリクエストはクライアントIPごとに制限する。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !rl.general.allow(key, time.Now()) {
				rl.reject(w, key, "general", rl.config.GeneralRate)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ListingCreationMiddleware は出品作成専用のレート制限ミドルウェアを返す。
// API全般のレート制限とは独立に動作し、SessionMiddlewareの後に配置する。
func (rl *RateLimiter) ListingCreationMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if !rl.listingCreate.allow("user:"+userID, time.Now()) {
				rl.reject(w, "user:"+userID, "listing_creation", rl.config.ListingCreateRate)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
func (rl *RateLimiter) GeneralLimiterCount() int {
	return rl.general.len()
}

// ListingCreateLimiterCount は現在管理されている出品作成リミッターのエントリ数を返す。
func (rl *RateLimiter) ListingCreateLimiterCount() int {
	return rl.listingCreate.len()
}

func (rl *RateLimiter) reject(w http.ResponseWriter, key, limitType string, limit rate.Limit) {
	rl.logger.Warn("rate limit exceeded",
		slog.String("client", key),
		slog.String("limit_type", limitType),
	)
	writeRateLimitResponse(w, limit)
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := rl.config.CleanupInterval * 2
	rl.general.prune(ttl, now)
	rl.listingCreate.prune(ttl, now)
}

// clientKey はレート制限のキーを返す。認証済みならユーザーID、そうでなければIPアドレス。
func clientKey(r *http.Request) string {
	if userID, err := UserIDFromContext(r.Context()); err == nil {
		return "user:" + userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが1つ補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := 1
	if r > 0 {
		retryAfterSec = int(math.Ceil(1.0 / float64(r)))
	}
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	WriteErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitedError())
}
