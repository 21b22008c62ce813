package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "apifoundry", Name: "login_attempts_total", Help: "Number of login attempts by outcome."},
		[]string{"outcome"},
	)
	TokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "apifoundry", Name: "token_refreshes_total", Help: "Number of token refresh attempts by outcome."},
		[]string{"outcome"},
	)
	TokensRevoked = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "apifoundry", Name: "tokens_revoked_total", Help: "Number of tokens written to the revocation denylist."},
	)
	SessionsRevoked = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "apifoundry", Name: "sessions_revoked_total", Help: "Number of sessions explicitly revoked."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "apifoundry", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "apifoundry", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(LoginAttempts)
	reg.MustRegister(TokenRefreshes)
	reg.MustRegister(TokensRevoked)
	reg.MustRegister(SessionsRevoked)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
