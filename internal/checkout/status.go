package checkout

import "fmt"

// Status is the single source of truth for what a checkout attempt may
// do next. Exactly one status is active at a time.
type Status int

const (
	StatusIdle Status = iota
	StatusCreating
	StatusProcessing
	StatusSuccess
	StatusFailed
)

var statusNames = map[Status]string{
	StatusIdle:       "idle",
	StatusCreating:   "creating",
	StatusProcessing: "processing",
	StatusSuccess:    "success",
	StatusFailed:     "failed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Terminal reports whether the attempt has finished; a terminal attempt
// only moves again through an explicit user action (retry or close).
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// MarshalText renders the status as its lowercase name in JSON payloads.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
