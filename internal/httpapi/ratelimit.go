package httpapi

import (
	"net/http"

	"golang.org/x/time/rate"
)

// limiter is a process-wide token bucket. A nil limiter admits everything.
type limiter struct {
	bucket *rate.Limiter
}

func newLimiter(perSecond float64, burst int) *limiter {
	if perSecond <= 0 {
		return &limiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &limiter{bucket: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.bucket != nil && !l.bucket.Allow() {
			w.Header().Set("Retry-After", "1")
			if r.Method == http.MethodPost {
				writeJSONError(w, http.StatusTooManyRequests, "Too many requests. Please try again shortly.")
				return
			}
			http.Error(w, "Too many requests. Please try again shortly.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
