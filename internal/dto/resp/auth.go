package resp

import (
	"time"

	"adminconsole/internal/model"
	"adminconsole/internal/session"
	v1 "adminconsole/pkg/api/v1"
)

type SignInResp struct {
	Redirect string `json:"redirect"`
}

// SessionResp is what the console shell polls to drive the expiry prompt.
type SessionResp struct {
	Authenticated bool           `json:"authenticated"`
	Subject       string         `json:"subject,omitempty"`
	Role          string         `json:"role,omitempty"`
	Admin         bool           `json:"admin"`
	ExpiresAt     *time.Time     `json:"expiresAt,omitempty"`
	Expired       session.Signal `json:"expired"`
	Refreshes     int64          `json:"refreshes"`
}

type PageResp struct {
	Page   string `json:"page"`
	Notice string `json:"notice,omitempty"`
}

type DashboardResp struct {
	Page      string                     `json:"page"`
	Principal *v1.Principal              `json:"principal,omitempty"`
	Settings  model.NotificationSettings `json:"settings"`
	Resources []string                   `json:"resources"`
}
