package domain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/google/uuid"
	"github.com/scribenote/scribenote/internal/models"
	"github.com/scribenote/scribenote/internal/pipeline"
	"github.com/scribenote/scribenote/internal/ports"
)

type jobState int

const (
	stateReceived jobState = iota
	stateDownloading
	stateConverting
	stateAwaitingMode
	stateTranscribing
	stateStructuring
	stateDelivering
	stateCleanup
	stateErrored
)

func (s jobState) String() string {
	switch s {
	case stateReceived:
		return "received"
	case stateDownloading:
		return "downloading"
	case stateConverting:
		return "converting"
	case stateAwaitingMode:
		return "awaiting_mode"
	case stateTranscribing:
		return "transcribing"
	case stateStructuring:
		return "structuring"
	case stateDelivering:
		return "delivering"
	case stateCleanup:
		return "cleanup"
	default:
		return "errored"
	}
}

type fetchStation interface {
	Run(ctx context.Context, fileRef, workDir string) (string, error)
}

type transcodeStation interface {
	Run(ctx context.Context, srcPath string) (string, int, error)
}

type transcribeStation interface {
	Run(ctx context.Context, audioPath, languageHint string) (string, error)
}

type structureStation interface {
	Run(ctx context.Context, transcript string, mode models.Mode) (string, error)
}

// VoiceService drives each interaction through the pipeline:
// received → downloading → converting → awaiting mode → transcribing →
// structuring → delivering → cleanup. Each inbound update runs on its own
// goroutine; interactions share nothing but the arena and the ledger.
type VoiceService struct {
	msgr    ports.Messenger
	quota   *QuotaService
	pending *PendingJobs

	s1 fetchStation
	s2 transcodeStation
	s3 transcribeStation
	s4 structureStation

	tmpRoot string
	log     *logger.ZapLogger
}

func NewVoiceService(
	msgr ports.Messenger,
	quota *QuotaService,
	pending *PendingJobs,
	s1 fetchStation,
	s2 transcodeStation,
	s3 transcribeStation,
	s4 structureStation,
	tmpRoot string,
	zl *logger.ZapLogger,
) *VoiceService {
	return &VoiceService{
		msgr:    msgr,
		quota:   quota,
		pending: pending,
		s1:      s1,
		s2:      s2,
		s3:      s3,
		s4:      s4,
		tmpRoot: tmpRoot,
		log:     zl,
	}
}

// Run consumes updates until the stream closes or ctx is cancelled.
func (s *VoiceService) Run(ctx context.Context) {
	go s.pending.Sweep(ctx, func(job *models.PendingJob) {
		s.logState(job.ID, stateCleanup, "pending job expired")
		bg, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.msgr.DeleteMessage(bg, job.ChatID, job.PromptMsgID)
		_, _ = s.msgr.SendMessage(bg, job.ChatID,
			"⌛ That voice note expired before a mode was chosen. Send it again if you still need it.")
	})

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-s.msgr.Updates():
			if !ok {
				return
			}
			switch {
			case upd.Voice != nil:
				go s.handleVoice(ctx, *upd.Voice)
			case upd.ModeSelect != nil:
				go s.handleModeSelect(ctx, *upd.ModeSelect)
			case upd.Command != nil:
				go s.handleCommand(ctx, *upd.Command)
			}
		}
	}
}

// ---- voice event: received → awaiting mode ----

func (s *VoiceService) handleVoice(ctx context.Context, ev models.VoiceEvent) {
	jobID := uuid.NewString()
	s.logState(jobID, stateReceived, "voice event",
		"user", ev.UserID, "reported_seconds", ev.ReportedSeconds)

	adm, err := s.quota.CheckAdmission(ctx, ev.UserID, ev.ReportedSeconds)
	if err != nil {
		s.logErr(jobID, "admission check failed", err)
		_, _ = s.msgr.SendMessage(ctx, ev.ChatID, apologyText)
		return
	}

	if !adm.Allowed {
		s.logState(jobID, stateErrored, "quota exceeded", "user", ev.UserID, "remaining", adm.Remaining)
		_, _ = s.msgr.SendMessage(ctx, ev.ChatID, s.quotaDeniedText(adm))
		return
	}

	statusID, err := s.msgr.SendMessage(ctx, ev.ChatID, "🎤 Processing your voice note...")
	if err != nil {
		s.logErr(jobID, "send status message", err)
	}

	workDir, err := os.MkdirTemp(s.tmpRoot, "voice-*")
	if err != nil {
		s.logErr(jobID, "create work dir", err)
		s.failInteraction(ctx, ev.ChatID, statusID, err)
		return
	}

	// ownership moves to the arena once the job is registered
	ownsDir := true
	defer func() {
		if ownsDir {
			_ = os.RemoveAll(workDir)
		}
	}()

	s.logState(jobID, stateDownloading, "fetching artifact")
	srcPath, err := s.s1.Run(ctx, ev.FileRef, workDir)
	if err != nil {
		s.logErr(jobID, "download failed", err)
		s.failInteraction(ctx, ev.ChatID, statusID, err)
		return
	}

	s.logState(jobID, stateConverting, "transcoding")
	audioPath, seconds, err := s.s2.Run(ctx, srcPath)
	if err != nil {
		s.logErr(jobID, "transcode failed", err)
		s.failInteraction(ctx, ev.ChatID, statusID, err)
		return
	}

	promptID, err := s.msgr.SendModeKeyboard(ctx, ev.ChatID,
		"✅ Got it! How should I format the text?", jobID)
	if err != nil {
		s.logErr(jobID, "send mode keyboard", err)
		s.failInteraction(ctx, ev.ChatID, statusID, err)
		return
	}

	s.pending.Put(&models.PendingJob{
		ID:           jobID,
		UserID:       ev.UserID,
		ChatID:       ev.ChatID,
		WorkDir:      workDir,
		AudioPath:    audioPath,
		Seconds:      seconds,
		LanguageHint: ev.LanguageHint,
		PromptMsgID:  promptID,
		CreatedAt:    time.Now(),
	})
	ownsDir = false

	if statusID != 0 {
		_ = s.msgr.DeleteMessage(ctx, ev.ChatID, statusID)
	}

	s.logState(jobID, stateAwaitingMode, "waiting for mode choice", "seconds", seconds)
}

// ---- mode selection: transcribing → delivering → cleanup ----

func (s *VoiceService) handleModeSelect(ctx context.Context, ev models.ModeSelectEvent) {
	job, ok := s.pending.Consume(ev.JobID)
	if !ok {
		_ = s.msgr.AnswerCallback(ctx, ev.CallbackID,
			"That one has expired — please resend the voice note.")
		return
	}
	_ = s.msgr.AnswerCallback(ctx, ev.CallbackID, "")

	// cleanup is unconditional: artifacts never outlive the interaction
	defer func() {
		s.logState(job.ID, stateCleanup, "removing artifacts")
		_ = os.RemoveAll(job.WorkDir)
	}()

	statusID := job.PromptMsgID
	if ev.MessageID != 0 {
		statusID = ev.MessageID
	}

	s.logState(job.ID, stateTranscribing, "transcribing", "mode", string(ev.Mode), "seconds", job.Seconds)
	_ = s.msgr.EditMessage(ctx, job.ChatID, statusID, "🎤 Transcribing your voice note...")

	transcript, err := s.s3.Run(ctx, job.AudioPath, job.LanguageHint)
	if err != nil {
		s.logErr(job.ID, "transcription failed", err)
		s.failInteraction(ctx, job.ChatID, statusID, err)
		return
	}

	// The transcription is the externally billed step: debit now, exactly
	// once, before anything is delivered.
	if err := s.quota.RecordUsage(ctx, job.UserID, job.Seconds); err != nil {
		s.logErr(job.ID, "record usage failed", err)
	}

	s.logState(job.ID, stateStructuring, "structuring")
	_ = s.msgr.EditMessage(ctx, job.ChatID, statusID, "🤖 Structuring the text...")

	final, err := s.s4.Run(ctx, transcript, ev.Mode)
	if err != nil {
		// degraded delivery: the raw transcript is still useful
		s.logErr(job.ID, "structuring failed, falling back to raw transcript", err)
		final = "⚠️ I couldn't format this one, so here is the raw transcript:\n\n" + transcript
	}

	s.logState(job.ID, stateDelivering, "delivering")
	_ = s.msgr.DeleteMessage(ctx, job.ChatID, statusID)

	if _, err := s.msgr.SendMessage(ctx, job.ChatID, final); err != nil {
		// best-effort only: retrying risks duplicate replies
		s.logErr(job.ID, "delivery failed", err)
	}
}

// ---- chat commands ----

func (s *VoiceService) handleCommand(ctx context.Context, ev models.CommandEvent) {
	switch ev.Name {
	case "start":
		_, _ = s.msgr.SendMessage(ctx, ev.ChatID,
			"👋 Hello! Send me a voice note and I'll turn it into structured text.")
	case "help":
		_, _ = s.msgr.SendMessage(ctx, ev.ChatID,
			"🤖 Send a voice note, pick a mode (Basic, Summarize or Translate) "+
				"and you'll get the text back.\n\n"+
				"/status shows how much of your daily allowance is left.")
	case "status":
		s.replyStatus(ctx, ev)
	case "grant":
		s.setPrivileged(ctx, ev, true)
	case "revoke":
		s.setPrivileged(ctx, ev, false)
	default:
		_, _ = s.msgr.SendMessage(ctx, ev.ChatID, "Unknown command. Try /help.")
	}
}

func (s *VoiceService) replyStatus(ctx context.Context, ev models.CommandEvent) {
	sum, err := s.quota.UsageSummary(ctx, ev.UserID)
	if err != nil {
		s.logErr("", "usage summary failed", err)
		_, _ = s.msgr.SendMessage(ctx, ev.ChatID, apologyText)
		return
	}

	remaining := "unlimited ✨"
	if !sum.IsPrivileged {
		left := s.quota.CapSeconds() - sum.ConsumedToday
		if left < 0 {
			left = 0
		}
		remaining = formatSeconds(left)
	}

	_, _ = s.msgr.SendMessage(ctx, ev.ChatID, fmt.Sprintf(
		"📊 *Your usage*\nToday: %s\nRemaining: %s\nAll time: %s",
		formatSeconds(sum.ConsumedToday), remaining, formatSeconds(sum.TotalSeconds)))
}

func (s *VoiceService) setPrivileged(ctx context.Context, ev models.CommandEvent, privileged bool) {
	if len(ev.Args) != 1 {
		_, _ = s.msgr.SendMessage(ctx, ev.ChatID, "Usage: /"+ev.Name+" <user id>")
		return
	}

	var target int64
	if _, err := fmt.Sscanf(ev.Args[0], "%d", &target); err != nil {
		_, _ = s.msgr.SendMessage(ctx, ev.ChatID, "That doesn't look like a user id.")
		return
	}

	err := s.quota.SetPrivileged(ctx, ev.UserID, target, privileged)
	if errors.Is(err, pipeline.ErrNotAdmin) {
		_, _ = s.msgr.SendMessage(ctx, ev.ChatID, "You are not allowed to do that.")
		return
	}
	if err != nil {
		s.logErr("", "set privileged failed", err)
		_, _ = s.msgr.SendMessage(ctx, ev.ChatID, apologyText)
		return
	}

	verb := "now has unlimited access"
	if !privileged {
		verb = "is back on the daily allowance"
	}
	_, _ = s.msgr.SendMessage(ctx, ev.ChatID, fmt.Sprintf("✅ User %d %s.", target, verb))
}

// ---- error presentation ----

const apologyText = "❌ Sorry, something went wrong. Please try again later."

// failInteraction turns a classified pipeline failure into the single
// user-facing message for this interaction, replacing the status notice.
func (s *VoiceService) failInteraction(ctx context.Context, chatID int64, statusID int, err error) {
	text := userFacingText(err)

	if statusID != 0 {
		if editErr := s.msgr.EditMessage(ctx, chatID, statusID, text); editErr == nil {
			return
		}
	}
	_, _ = s.msgr.SendMessage(ctx, chatID, text)
}

func userFacingText(err error) string {
	var convErr *pipeline.ConversionError
	if errors.As(err, &convErr) {
		return "❌ I couldn't read that recording. Please resend it as a regular voice note."
	}

	var trErr *pipeline.TranscriptionError
	if errors.As(err, &trErr) {
		if trErr.Kind == pipeline.KindInvalidAudio {
			return "❌ The audio couldn't be transcribed. Please resend the voice note."
		}
		return "😔 The transcription service is having a moment. Please try again in a bit."
	}

	var stErr *pipeline.StructuringError
	if errors.As(err, &stErr) {
		return "😔 The formatting service is having a moment. Please try again in a bit."
	}

	return apologyText
}

func (s *VoiceService) quotaDeniedText(adm models.Admission) string {
	reset := s.quota.UntilReset().Round(time.Minute)
	if adm.Remaining > 0 {
		return fmt.Sprintf(
			"⏳ That note is longer than what's left of your daily allowance (%s). It resets in %s.",
			formatSeconds(adm.Remaining), reset)
	}
	return fmt.Sprintf(
		"⏳ You've used up today's allowance. It resets in %s.", reset)
}

func formatSeconds(total int) string {
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

// ---- logging ----

func (s *VoiceService) logState(jobID string, st jobState, msg string, kv ...any) {
	fields := map[string]any{"job": jobID, "state": st.String()}
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			fields[k] = kv[i+1]
		}
	}
	s.log.Log(logger.LogEntry{Level: "info", Message: msg, Fields: fields})
}

func (s *VoiceService) logErr(jobID, msg string, err error) {
	s.log.Log(logger.LogEntry{
		Level:   "error",
		Message: msg,
		Error:   err,
		Fields:  map[string]any{"job": jobID},
	})
}
