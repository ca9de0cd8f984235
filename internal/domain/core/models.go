package core

import "time"

type Employee struct {
	ID        int64      `json:"id"`
	UserID    *int64     `json:"userId,omitempty"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Active    bool       `json:"active"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	PeriodType  string    `json:"periodType"`
	AutoApprove bool      `json:"autoApprove"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProjectHours struct {
	ProjectID   int64   `json:"projectId"`
	ProjectName string  `json:"projectName"`
	Timesheets  int     `json:"timesheets"`
	TotalHours  float64 `json:"totalHours"`
}
