package sessions

import "time"

// Session represents one logical login, independent of any single token.
// Multiple concurrent sessions per subject are allowed (multi-device model).
type Session struct {
	ID             string    `json:"id"`
	Sub            string    `json:"sub"`
	CreatedAt      time.Time `json:"createdAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	IP             string    `json:"ipAddress,omitempty"`
	UserAgent      string    `json:"userAgent,omitempty"`
}
