package employee

// EmployeeResponse is the roster view used by the UI shell.
type EmployeeResponse struct {
	ID         string `json:"id"`
	NationalID string `json:"national_id"`
	FullName   string `json:"full_name"`
	Active     bool   `json:"active"`
}

// RefreshResult summarizes a directory pull. Skipped counts entries the
// server sent that failed local validation and were not applied.
type RefreshResult struct {
	Applied         int   `json:"applied"`
	Skipped         int   `json:"skipped"`
	UpdatedSince    int64 `json:"updated_since_millis"`
	ServerTimestamp int64 `json:"server_timestamp_millis,omitempty"`
}
