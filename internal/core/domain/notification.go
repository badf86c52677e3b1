package domain

// JobState is the final state reported in a notification. Values outside the
// three known states are kept as sent.
type JobState string

const (
	StateSuccessful JobState = "successful_job"
	StateCancelled  JobState = "cancelled_job"
	StateFailed     JobState = "failed_job"
)

// Known reports whether s is one of the documented states.
func (s JobState) Known() bool {
	switch s {
	case StateSuccessful, StateCancelled, StateFailed:
		return true
	}
	return false
}

// JobNotification is the completion callback for a job.
// All fields are trimmed strings; timestamps are UTC YYYY-MM-DDTHH:MM:SSZ.
type JobNotification struct {
	ID              string   `json:"id"`
	RecipeID        string   `json:"recipe_id"`
	RecipeName      string   `json:"recipe_name"`
	State           JobState `json:"state"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	InitializedAt   string   `json:"initialized_job_at"`
	FinishedAt      string   `json:"finished_job_at"`
	InputMediaFile  string   `json:"input_media_file"`
	OutputMediaFile string   `json:"output_media_file"`
	WatermarkFile   string   `json:"watermark_file,omitempty"`
}
