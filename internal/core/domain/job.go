package domain

import "time"

// Job is a unit of work carried by the queue. Data holds snapshots of the
// news records the job was enqueued for.
type Job struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Data         []News    `json:"data"`
	AttemptsMade int       `json:"attempts_made"`
	MaxAttempts  int       `json:"max_attempts"`
	Timestamp    time.Time `json:"timestamp"`
	FailedReason string    `json:"failed_reason,omitempty"`
}

// Exhausted reports whether no retry remains after the current attempt.
func (j *Job) Exhausted() bool {
	return j.AttemptsMade >= j.MaxAttempts
}
