package models

// EventFilter represents filter parameters for querying events
type EventFilter struct {
	AccountID string `form:"account_id"`
	StartTime int64  `form:"startTime"` // Unix timestamp
	EndTime   int64  `form:"endTime"`   // Unix timestamp
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// TaskFilter represents filter parameters for listing training tasks
type TaskFilter struct {
	SkillName string `form:"skill_name"`
	Status    string `form:"status"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}
