package dto

import "time"

type EntryOutput struct {
	Seq     int
	Speaker string
	Text    string
	At      time.Time
}

type SessionOutput struct {
	SessionID string
	UserName  string
	Phase     string
	Ended     bool
	StartedAt time.Time
	EndedAt   time.Time
	Entries   []EntryOutput
}

type SubmitInput struct {
	Text string
}

// SubmitOutput carries only the entries appended by this submission, in order.
type SubmitOutput struct {
	Entries  []EntryOutput
	Phase    string
	UserName string
	Ended    bool
}

type ArchivedSummary struct {
	SessionID string
	UserName  string
	Phase     string
	StartedAt time.Time
	EndedAt   time.Time
	Entries   int
	Accepted  int
}

type ListArchivedInput struct {
	Limit int
}

type ExportInput struct {
	SessionID string
	Dir       string
}

type ExportOutput struct {
	SessionID string
	Path      string
}
