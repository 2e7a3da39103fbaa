package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadagent_backend/platform/logger"
)

var (
	// ErrEmptyUtterance is returned when a turn contains no usable text.
	ErrEmptyUtterance = errors.New("empty utterance")
	// ErrSessionClosed is returned when a turn arrives after Close.
	ErrSessionClosed = errors.New("session closed")
	// ErrCorruptSnapshot is returned by Restore for snapshots that fail
	// validation. Restoring from a corrupt snapshot is a hard error; the
	// engine never guesses at missing state.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// Role labels who produced a recorded turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TurnRecord is one entry in the bounded recent-turn window.
type TurnRecord struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Config carries the orchestration thresholds. Zero values fall back to
// the engine defaults.
type Config struct {
	StuckWindow         int
	SimilarityThreshold float64
	StageTurnCeiling    int
	GlobalTurnCeiling   int
	RecentWindow        int
	ClosingMinTurns     int
	FarewellPhrases     []string
}

func (c Config) withDefaults() Config {
	if c.StuckWindow <= 0 {
		c.StuckWindow = 3
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = 0.8
	}
	if c.StageTurnCeiling <= 0 {
		c.StageTurnCeiling = 6
	}
	if c.GlobalTurnCeiling <= 0 {
		c.GlobalTurnCeiling = 30
	}
	if c.RecentWindow <= 0 {
		c.RecentWindow = 6
	}
	if c.ClosingMinTurns <= 0 {
		c.ClosingMinTurns = 2
	}
	if len(c.FarewellPhrases) == 0 {
		c.FarewellPhrases = []string{
			"bye", "goodbye", "not interested", "no more questions",
			"talk later", "have to go", "stop calling",
		}
	}
	return c
}

// PromptContext tells the response generator what to say next: which
// template to render and the profile state to fill it with.
type PromptContext struct {
	TemplateID    string      `json:"template_id"`
	Stage         Stage       `json:"stage"`
	Profile       LeadProfile `json:"profile"`
	MissingFields []FieldKey  `json:"missing_fields,omitempty"`
	Forced        bool        `json:"forced,omitempty"`
}

// EndCause says which condition triggered the ending sequence.
type EndCause string

const (
	EndCauseNone        EndCause = ""
	EndCauseFarewell    EndCause = "farewell"
	EndCauseTurnCeiling EndCause = "turn_ceiling"
	// EndCauseCompleted marks a natural advance out of closing.
	EndCauseCompleted EndCause = "completed"
)

// Result is the outcome of processing one user turn.
type Result struct {
	Profile  LeadProfile
	Stage    Stage
	Advanced bool
	Forced   bool
	Ending   bool
	EndCause EndCause
	Prompt   PromptContext
}

// Orchestrator drives one conversation through the staged flow. It is
// not safe for concurrent use; callers serialize turns per session.
type Orchestrator struct {
	cfg       Config
	extractor *Extractor
	stuck     *StuckDetector
	log       *logger.Logger

	stage          Stage
	profile        LeadProfile
	recent         []TurnRecord
	totalUserTurns int
	stageUserTurns int
	closed         bool
}

// New returns an orchestrator positioned at the introduction stage with
// an empty profile.
func New(cfg Config, extractor *Extractor, log *logger.Logger) *Orchestrator {
	cfg = cfg.withDefaults()
	return &Orchestrator{
		cfg:       cfg,
		extractor: extractor,
		stuck:     NewStuckDetector(cfg.StuckWindow, cfg.SimilarityThreshold, cfg.StageTurnCeiling),
		log:       log,
		stage:     StageIntroduction,
		profile:   NewLeadProfile(),
	}
}

// Stage returns the current stage.
func (o *Orchestrator) Stage() Stage { return o.stage }

// Profile returns a snapshot of the accumulated lead profile.
func (o *Orchestrator) Profile() LeadProfile { return o.profile.Clone() }

// Ended reports whether the conversation reached the terminal stage.
func (o *Orchestrator) Ended() bool { return o.stage.Terminal() }

// UserTurns returns the total number of user turns processed.
func (o *Orchestrator) UserTurns() int { return o.totalUserTurns }

// Recent returns a copy of the bounded recent-turn window.
func (o *Orchestrator) Recent() []TurnRecord {
	out := make([]TurnRecord, len(o.recent))
	copy(out, o.recent)
	return out
}

// Close marks the session closed. Subsequent turns fail with
// ErrSessionClosed. Close does not alter the stage.
func (o *Orchestrator) Close() { o.closed = true }

// ProcessMessage runs one user turn through the full pipeline: record,
// extract, merge, stall check, ending check, advancement check, prompt
// selection. After the conversation has ended it only appends to the
// turn window.
func (o *Orchestrator) ProcessMessage(ctx context.Context, utterance string) (Result, error) {
	if o.closed {
		return Result{}, ErrSessionClosed
	}
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return Result{}, ErrEmptyUtterance
	}

	o.appendTurn(RoleUser, utterance)

	if o.stage.Terminal() {
		return Result{
			Profile: o.profile.Clone(),
			Stage:   StageEnded,
			Ending:  true,
			Prompt:  o.promptContext(false),
		}, nil
	}

	o.totalUserTurns++
	o.stageUserTurns++

	var update map[FieldKey]string
	if o.extractor != nil {
		update = o.extractor.Extract(ctx, utterance, o.profile)
	}
	applied := o.profile.Merge(update)
	stalled := o.stuck.Observe(utterance, len(applied) > 0)

	var res Result
	switch cause := o.shouldEnd(utterance); {
	case cause != EndCauseNone:
		o.StartEndingSequence()
		res.Ending = true
		res.EndCause = cause
	default:
		advance, forced := o.shouldAdvance(stalled)
		if advance {
			o.advance()
			res.Advanced = true
			res.Forced = forced
			res.Ending = o.stage.Terminal()
			if res.Ending {
				res.EndCause = EndCauseCompleted
			}
		}
	}

	res.Profile = o.profile.Clone()
	res.Stage = o.stage
	res.Prompt = o.promptContext(res.Forced)
	return res, nil
}

// RecordAssistantTurn appends the generated response to the recent-turn
// window so the history survives snapshot round-trips.
func (o *Orchestrator) RecordAssistantTurn(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	o.appendTurn(RoleAssistant, text)
}

// ShouldAdvanceStage reports whether the current stage would advance on
// its own right now, and whether that advance would be forced. It does
// not mutate state.
func (o *Orchestrator) ShouldAdvanceStage() (advance, forced bool) {
	if o.stage.Terminal() {
		return false, false
	}
	return o.shouldAdvance(false)
}

func (o *Orchestrator) shouldAdvance(stalled bool) (advance, forced bool) {
	if stalled {
		return true, true
	}
	rule := RuleFor(o.stage)
	if o.stageUserTurns < o.minTurns(rule) {
		return false, false
	}
	if len(rule.Required) == 0 {
		// Requirement-free stages advance on the turn floor alone.
		return true, false
	}
	if o.profile.Complete(rule.Required) {
		return true, false
	}
	return false, false
}

func (o *Orchestrator) minTurns(rule StageRule) int {
	if o.stage == StageClosing && o.cfg.ClosingMinTurns > 0 {
		return o.cfg.ClosingMinTurns
	}
	return rule.MinTurns
}

// AdvanceStage moves to the next stage. It reports false without side
// effects when the conversation has already ended; callers must check
// the return value.
func (o *Orchestrator) AdvanceStage() bool {
	if o.stage.Terminal() {
		return false
	}
	o.advance()
	return true
}

func (o *Orchestrator) advance() {
	prev := o.stage
	o.stage = o.stage.Next()
	o.stageUserTurns = 0
	o.stuck.StageChanged()
	if o.log != nil {
		o.log.Info("stage advanced",
			"from", string(prev),
			"to", string(o.stage),
			"user_turns", o.totalUserTurns,
		)
	}
}

// StartEndingSequence jumps the conversation to the terminal stage from
// anywhere. It is idempotent.
func (o *Orchestrator) StartEndingSequence() {
	if o.stage.Terminal() {
		return
	}
	o.stage = StageEnded
	o.stageUserTurns = 0
	o.stuck.StageChanged()
}

func (o *Orchestrator) shouldEnd(utterance string) EndCause {
	if o.totalUserTurns >= o.cfg.GlobalTurnCeiling {
		return EndCauseTurnCeiling
	}
	lowered := strings.ToLower(utterance)
	for _, phrase := range o.cfg.FarewellPhrases {
		if strings.Contains(lowered, phrase) {
			return EndCauseFarewell
		}
	}
	return EndCauseNone
}

func (o *Orchestrator) promptContext(forced bool) PromptContext {
	rule := RuleFor(o.stage)
	return PromptContext{
		TemplateID:    rule.TemplateID,
		Stage:         o.stage,
		Profile:       o.profile.Clone(),
		MissingFields: o.profile.Missing(rule.Required),
		Forced:        forced,
	}
}

func (o *Orchestrator) appendTurn(role Role, text string) {
	o.recent = append(o.recent, TurnRecord{
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
	if max := o.cfg.RecentWindow * 2; len(o.recent) > max {
		o.recent = o.recent[len(o.recent)-max:]
	}
}

// State is the serializable snapshot of one conversation's engine
// state. A snapshot taken with State and fed back through Restore
// reproduces the engine exactly.
type State struct {
	Stage           Stage        `json:"stage"`
	Profile         LeadProfile  `json:"profile"`
	RecentTurns     []TurnRecord `json:"recent_turns,omitempty"`
	TotalUserTurns  int          `json:"total_user_turns"`
	StageUserTurns  int          `json:"stage_user_turns"`
	NoProgressTurns int          `json:"no_progress_turns"`
	PrevUserText    string       `json:"prev_user_text,omitempty"`
	LastUserText    string       `json:"last_user_text,omitempty"`
	Closed          bool         `json:"closed,omitempty"`
}

// State captures the current engine state for persistence.
func (o *Orchestrator) State() State {
	return State{
		Stage:           o.stage,
		Profile:         o.profile.Clone(),
		RecentTurns:     o.Recent(),
		TotalUserTurns:  o.totalUserTurns,
		StageUserTurns:  o.stageUserTurns,
		NoProgressTurns: o.stuck.noProgress,
		PrevUserText:    o.stuck.prevText,
		LastUserText:    o.stuck.lastText,
		Closed:          o.closed,
	}
}

// Restore replaces the engine state with a previously captured
// snapshot. Snapshots with an unknown stage, unknown profile keys or
// negative counters fail with ErrCorruptSnapshot.
func (o *Orchestrator) Restore(s State) error {
	if !s.Stage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", ErrCorruptSnapshot, s.Stage)
	}
	if s.TotalUserTurns < 0 || s.StageUserTurns < 0 || s.NoProgressTurns < 0 {
		return fmt.Errorf("%w: negative turn counter", ErrCorruptSnapshot)
	}
	for k := range s.Profile.Fields {
		if !k.Valid() {
			return fmt.Errorf("%w: unknown profile field %q", ErrCorruptSnapshot, k)
		}
	}

	o.stage = s.Stage
	o.profile = s.Profile.Clone()
	o.recent = append([]TurnRecord(nil), s.RecentTurns...)
	o.totalUserTurns = s.TotalUserTurns
	o.stageUserTurns = s.StageUserTurns
	o.closed = s.Closed
	o.stuck = NewStuckDetector(o.cfg.StuckWindow, o.cfg.SimilarityThreshold, o.cfg.StageTurnCeiling)
	o.stuck.noProgress = s.NoProgressTurns
	o.stuck.stageTurns = s.StageUserTurns
	o.stuck.prevText = s.PrevUserText
	o.stuck.lastText = s.LastUserText
	return nil
}
