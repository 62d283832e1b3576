package model

import "time"

// AuditLog is one request recorded by the backend's audit trail.
type AuditLog struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Param     string    `json:"param"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	Timestamp time.Time `json:"timestamp"`
}
