package req

type ListQuery struct {
	PageNumber int    `form:"pageNumber" binding:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" binding:"omitempty,min=1,max=500"`
	Search     string `form:"search"`
	Status     string `form:"status"`
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
}

type ItemURI struct {
	ID string `uri:"id" binding:"required"`
}

type NotificationSettingsReq struct {
	LowStockThreshold *int `json:"lowStockThreshold" binding:"required,min=0"`
}
