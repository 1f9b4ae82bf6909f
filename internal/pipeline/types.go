package pipeline

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Stage outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFail    = "fail"
)

// RunState is the persisted record of one pipeline run. It is written for
// inspection only; a new run never reads a previous one.
type RunState struct {
	ID           string              `json:"id"`
	Status       string              `json:"status"` // "running", "completed", "failed"
	CurrentStage string              `json:"current_stage"`
	StageHistory []StageHistoryEntry `json:"stage_history"`
	ConfigPaths  ConfigPaths         `json:"config_paths"`
	Error        string              `json:"error,omitempty"`
	CreatedAt    string              `json:"created_at"`
	UpdatedAt    string              `json:"updated_at"`
}

// ConfigPaths records which documents a run was configured from.
type ConfigPaths struct {
	Config string `json:"config"`
	Params string `json:"params"`
	Schema string `json:"schema"`
}

// StageHistoryEntry records the outcome of one stage of a run.
type StageHistoryEntry struct {
	Stage    string `json:"stage"`
	Outcome  string `json:"outcome"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}
