package models

import "time"

// Mode selects the structuring instruction template and model tier.
type Mode string

const (
	ModeBasic     Mode = "basic"
	ModeSummarize Mode = "summarize"
	ModeTranslate Mode = "translate"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeBasic, ModeSummarize, ModeTranslate:
		return true
	}
	return false
}

// PendingJob holds a converted voice artifact between conversion and the
// user's mode choice. In-memory only: a restart loses it and the sender
// resends.
type PendingJob struct {
	ID           string // correlation id
	UserID       int64
	ChatID       int64
	WorkDir      string
	AudioPath    string
	Seconds      int
	LanguageHint string
	PromptMsgID  int
	CreatedAt    time.Time
}

// VoiceEvent is an inbound voice recording from the messaging platform.
type VoiceEvent struct {
	UserID          int64
	ChatID          int64
	FileRef         string
	ReportedSeconds int
	LanguageHint    string
}

// ModeSelectEvent is the user's mode choice, correlated to a PendingJob.
type ModeSelectEvent struct {
	UserID     int64
	ChatID     int64
	MessageID  int
	CallbackID string
	JobID      string
	Mode       Mode
}

type CommandEvent struct {
	UserID int64
	ChatID int64
	Name   string
	Args   []string
}

// Update is one inbound event; exactly one field is non-nil.
type Update struct {
	ID         int64
	Voice      *VoiceEvent
	ModeSelect *ModeSelectEvent
	Command    *CommandEvent
}
