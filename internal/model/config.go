package model

// NotificationSettings are console-local preferences.
type NotificationSettings struct {
	LowStockThreshold int `json:"lowStockThreshold"`
}

const DefaultLowStockThreshold = 10
