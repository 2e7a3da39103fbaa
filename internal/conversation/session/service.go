// Package session coordinates live conversations: it owns the engine
// lifecycle around each turn, persistence of transcripts and snapshots,
// reply generation and the lead record that grows out of the dialogue.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"leadagent_backend/internal/conversation/domain"
	"leadagent_backend/internal/conversation/engine"
	"leadagent_backend/internal/conversation/ports"
	"leadagent_backend/internal/conversation/repository"
	"leadagent_backend/internal/conversation/store"
	"leadagent_backend/internal/events"
	leaddomain "leadagent_backend/internal/leads/domain"
	leadservice "leadagent_backend/internal/leads/service"
	"leadagent_backend/platform/apperr"
	"leadagent_backend/platform/config"
	"leadagent_backend/platform/logger"
)

const fallbackReply = "Sorry, I did not catch that. Could you say it again?"
const endedReply = "Thanks again for your time. Have a great day!"

// TurnResult is what one processed turn returns to the transport layer.
type TurnResult struct {
	ConversationID uuid.UUID
	Reply          string
	ReplyAudio     []byte
	Stage          string
	Advanced       bool
	Forced         bool
	Ending         bool
	Transcript     string
	Profile        map[string]string
}

type Service struct {
	repo      *repository.Repository
	snapshots *store.SnapshotStore
	leads     *leadservice.Service
	generator ports.TextGenerator
	extractor *engine.Extractor

	transcriber ports.Transcriber
	synthesizer ports.Synthesizer
	archiver    ports.AudioArchiver

	bus events.Bus
	cfg *config.Config
	log *logger.Logger

	// one permit per conversation; a second concurrent turn is rejected
	// instead of queued
	locks sync.Map
}

func NewService(
	repo *repository.Repository,
	snapshots *store.SnapshotStore,
	leads *leadservice.Service,
	generator ports.TextGenerator,
	fieldExtractor engine.StructuredExtractor,
	bus events.Bus,
	cfg *config.Config,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		snapshots: snapshots,
		leads:     leads,
		generator: generator,
		extractor: engine.NewExtractor(fieldExtractor, cfg.GetExtractTimeout(), log),
		bus:       bus,
		cfg:       cfg,
		log:       log,
	}
}

// SetSpeech wires the optional voice collaborators.
func (s *Service) SetSpeech(transcriber ports.Transcriber, synthesizer ports.Synthesizer, archiver ports.AudioArchiver) {
	s.transcriber = transcriber
	s.synthesizer = synthesizer
	s.archiver = archiver
}

func (s *Service) engineConfig() engine.Config {
	t := s.cfg.Tuning
	return engine.Config{
		StuckWindow:         t.StuckWindow,
		SimilarityThreshold: t.SimilarityThreshold,
		StageTurnCeiling:    t.StageTurnCeiling,
		GlobalTurnCeiling:   t.GlobalTurnCeiling,
		RecentWindow:        t.RecentWindow,
		ClosingMinTurns:     t.ClosingMinTurns,
		FarewellPhrases:     t.FarewellPhrases,
	}
}

// Start opens a new conversation with its own lead record and returns
// the opening line.
func (s *Service) Start(ctx context.Context, channel string) (domain.Conversation, string, error) {
	if channel != domain.ChannelText && channel != domain.ChannelVoice {
		return domain.Conversation{}, "", apperr.Validation("channel must be text or voice").WithOp("conversation.Start")
	}

	lead, err := s.leads.Create(ctx, string(engine.StageIntroduction))
	if err != nil {
		return domain.Conversation{}, "", err
	}
	conv, err := s.repo.Create(ctx, lead.ID, channel)
	if err != nil {
		s.log.DatabaseError("create conversation", err)
		return domain.Conversation{}, "", apperr.Internal("could not start conversation").WithOp("conversation.Start")
	}

	orch := engine.New(s.engineConfig(), s.extractor, s.log)
	greeting := s.generateReply(ctx, orch, engine.PromptContext{
		TemplateID: engine.RuleFor(engine.StageIntroduction).TemplateID,
		Stage:      engine.StageIntroduction,
		Profile:    engine.NewLeadProfile(),
	}, "Hi! Thanks for taking the time. May I ask who I have the pleasure of speaking with?")
	orch.RecordAssistantTurn(greeting)

	if err := s.snapshots.Save(ctx, conv.ID.String(), orch.State()); err != nil {
		return domain.Conversation{}, "", apperr.Wrap(apperr.KindInternal, "could not persist conversation state", err).WithOp("conversation.Start")
	}
	if _, err := s.repo.AppendMessage(ctx, domain.Message{
		ConversationID: conv.ID,
		Role:           string(engine.RoleAssistant),
		Text:           greeting,
		Stage:          string(engine.StageIntroduction),
	}); err != nil {
		s.log.DatabaseError("append greeting", err)
	}

	s.bus.Publish(ctx, events.ConversationStarted{
		BaseEvent:      events.NewBaseEvent(),
		ConversationID: conv.ID,
		LeadID:         lead.ID,
		Channel:        channel,
	})
	return conv, greeting, nil
}

// ProcessText runs one text turn end to end.
func (s *Service) ProcessText(ctx context.Context, conversationID uuid.UUID, text string) (TurnResult, error) {
	return s.processTurn(ctx, conversationID, text, "")
}

// ProcessAudio transcribes a voice turn, runs it through the text path
// and synthesizes the reply when a synthesizer is configured.
func (s *Service) ProcessAudio(ctx context.Context, conversationID uuid.UUID, audio []byte, contentType string) (TurnResult, error) {
	if s.transcriber == nil {
		return TurnResult{}, apperr.BadRequest("voice turns are not enabled").WithOp("conversation.ProcessAudio")
	}
	if len(audio) == 0 {
		return TurnResult{}, apperr.Validation("audio payload is empty").WithOp("conversation.ProcessAudio")
	}

	audioKey := ""
	if s.archiver != nil {
		key, err := s.archiver.Store(ctx, conversationID.String(), audio, contentType)
		if err != nil {
			s.log.CollaboratorDegraded("audio archive", "store", err)
		} else {
			audioKey = key
		}
	}

	text, err := s.transcriber.Transcribe(ctx, audio, s.cfg.GetSpeechLanguage())
	if err != nil {
		s.log.CollaboratorDegraded("transcriber", "transcribe", err)
		return TurnResult{}, apperr.Wrap(apperr.KindInternal, "could not transcribe audio", err).WithOp("conversation.ProcessAudio")
	}

	res, err := s.processTurn(ctx, conversationID, text, audioKey)
	if err != nil {
		return TurnResult{}, err
	}
	res.Transcript = text

	if s.synthesizer != nil {
		speech, err := s.synthesizer.Synthesize(ctx, res.Reply)
		if err != nil {
			s.log.CollaboratorDegraded("synthesizer", "synthesize", err)
		} else {
			res.ReplyAudio = speech
		}
	}
	return res, nil
}

func (s *Service) processTurn(ctx context.Context, conversationID uuid.UUID, text, audioKey string) (TurnResult, error) {
	started := time.Now()

	sem := s.lock(conversationID)
	if !sem.TryAcquire(1) {
		return TurnResult{}, apperr.Conflict("a turn is already being processed for this conversation").WithOp("conversation.ProcessTurn")
	}
	defer sem.Release(1)

	conv, err := s.get(ctx, conversationID)
	if err != nil {
		return TurnResult{}, err
	}

	orch, err := s.loadEngine(ctx, conv.ID)
	if err != nil {
		return TurnResult{}, err
	}

	prevStage := orch.Stage()
	res, err := orch.ProcessMessage(ctx, text)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrEmptyUtterance):
			return TurnResult{}, apperr.Validation("message text is empty").WithOp("conversation.ProcessTurn")
		case errors.Is(err, engine.ErrSessionClosed):
			return TurnResult{}, apperr.Gone("conversation is closed").WithOp("conversation.ProcessTurn")
		default:
			return TurnResult{}, apperr.Wrap(apperr.KindInternal, "could not process message", err).WithOp("conversation.ProcessTurn")
		}
	}

	reply := endedReply
	if conv.Status != domain.StatusEnded {
		reply = s.generateReply(ctx, orch, res.Prompt, fallbackReply)
	}
	orch.RecordAssistantTurn(reply)

	s.persistTurn(ctx, conv, text, reply, audioKey, res)
	if err := s.snapshots.Save(ctx, conv.ID.String(), orch.State()); err != nil {
		return TurnResult{}, apperr.Wrap(apperr.KindInternal, "could not persist conversation state", err).WithOp("conversation.ProcessTurn")
	}

	if conv.Status != domain.StatusEnded {
		s.syncLead(ctx, conv, res, text)
		if res.Advanced {
			s.bus.Publish(ctx, events.StageAdvanced{
				BaseEvent:      events.NewBaseEvent(),
				ConversationID: conv.ID,
				LeadID:         conv.LeadID,
				OldStage:       string(prevStage),
				NewStage:       string(res.Stage),
				Forced:         res.Forced,
				UserTurns:      orch.UserTurns(),
			})
		}
		if res.Ending {
			s.finalize(ctx, conv, orch, endReason(res))
		}
	}

	s.log.Turn(conv.ID.String(), string(res.Stage), res.Advanced, res.Forced, res.Ending,
		float64(time.Since(started).Milliseconds()))

	return TurnResult{
		ConversationID: conv.ID,
		Reply:          reply,
		Stage:          string(res.Stage),
		Advanced:       res.Advanced,
		Forced:         res.Forced,
		Ending:         res.Ending,
		Profile:        profileMap(res.Profile),
	}, nil
}

// End closes a conversation on request. Ending an ended conversation is
// a no-op.
func (s *Service) End(ctx context.Context, conversationID uuid.UUID, reason string) (domain.Conversation, error) {
	conv, err := s.get(ctx, conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if conv.Status == domain.StatusEnded {
		return conv, nil
	}
	if reason == "" {
		reason = "requested"
	}

	orch, err := s.loadEngine(ctx, conv.ID)
	if err != nil {
		return domain.Conversation{}, err
	}
	orch.StartEndingSequence()
	if err := s.snapshots.Save(ctx, conv.ID.String(), orch.State()); err != nil {
		s.log.Error("save snapshot on end", "error", err, "conversationId", conv.ID)
	}
	return s.finalize(ctx, conv, orch, reason)
}

// Get returns the conversation row.
func (s *Service) Get(ctx context.Context, conversationID uuid.UUID) (domain.Conversation, error) {
	return s.get(ctx, conversationID)
}

// Messages returns the persisted transcript, oldest first.
func (s *Service) Messages(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	if _, err := s.get(ctx, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		s.log.DatabaseError("list messages", err)
		return nil, apperr.Internal("could not load messages").WithOp("conversation.Messages")
	}
	return msgs, nil
}

// Lead returns the lead record behind the conversation.
func (s *Service) Lead(ctx context.Context, conversationID uuid.UUID) (leaddomain.Lead, error) {
	conv, err := s.get(ctx, conversationID)
	if err != nil {
		return leaddomain.Lead{}, err
	}
	return s.leads.Get(ctx, conv.LeadID)
}

// Expire ends an idle conversation from the background scanner.
func (s *Service) Expire(ctx context.Context, conversationID uuid.UUID) error {
	_, err := s.End(ctx, conversationID, "expired")
	return err
}

// IdleConversations lists active conversations idle since the cutoff.
func (s *Service) IdleConversations(ctx context.Context, cutoff time.Time, limit int) ([]domain.Conversation, error) {
	return s.repo.ListIdleActive(ctx, cutoff, limit)
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	conv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return domain.Conversation{}, apperr.NotFound("conversation not found").WithOp("conversation.Get")
		}
		s.log.DatabaseError("get conversation", err)
		return domain.Conversation{}, apperr.Internal("could not load conversation").WithOp("conversation.Get")
	}
	return conv, nil
}

func (s *Service) loadEngine(ctx context.Context, conversationID uuid.UUID) (*engine.Orchestrator, error) {
	orch := engine.New(s.engineConfig(), s.extractor, s.log)

	snap, err := s.snapshots.Load(ctx, conversationID.String())
	if errors.Is(err, store.ErrSnapshotNotFound) {
		return orch, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not load conversation state", err).WithOp("conversation.loadEngine")
	}
	if err := orch.Restore(snap); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "conversation state is corrupt", err).WithOp("conversation.loadEngine")
	}
	return orch, nil
}

func (s *Service) generateReply(ctx context.Context, orch *engine.Orchestrator, pc engine.PromptContext, fallback string) string {
	gctx, cancel := context.WithTimeout(ctx, s.cfg.GetGenerateTimeout())
	defer cancel()

	reply, err := s.generator.Generate(gctx, BuildSystemPrompt(pc, s.cfg.Tuning.StageGoals), orch.Recent())
	if err != nil {
		s.log.CollaboratorDegraded("generator", "generate", err)
		return fallback
	}
	return reply
}

func (s *Service) persistTurn(ctx context.Context, conv domain.Conversation, text, reply, audioKey string, res engine.Result) {
	if _, err := s.repo.AppendMessage(ctx, domain.Message{
		ConversationID: conv.ID,
		Role:           string(engine.RoleUser),
		Text:           text,
		Stage:          string(res.Stage),
		AudioKey:       audioKey,
	}); err != nil {
		s.log.DatabaseError("append user message", err)
	}
	if _, err := s.repo.AppendMessage(ctx, domain.Message{
		ConversationID: conv.ID,
		Role:           string(engine.RoleAssistant),
		Text:           reply,
		Stage:          string(res.Stage),
	}); err != nil {
		s.log.DatabaseError("append assistant message", err)
	}
	if err := s.repo.Touch(ctx, conv.ID); err != nil {
		s.log.DatabaseError("touch conversation", err)
	}
}

func (s *Service) syncLead(ctx context.Context, conv domain.Conversation, res engine.Result, text string) {
	update := leaddomain.ProfileUpdate{
		Name:            res.Profile.Get(engine.FieldName),
		Company:         res.Profile.Get(engine.FieldCompany),
		Role:            res.Profile.Get(engine.FieldRole),
		Need:            res.Profile.Get(engine.FieldNeed),
		PainPoint:       res.Profile.Get(engine.FieldPainPoint),
		Budget:          res.Profile.Get(engine.FieldBudget),
		Timeline:        res.Profile.Get(engine.FieldTimeline),
		ProductInterest: res.Profile.Get(engine.FieldProductInterest),
		Stage:           string(res.Stage),
	}
	if _, err := s.leads.ApplyProfile(ctx, conv.LeadID, conv.ID, update, ""); err != nil {
		s.log.Error("apply profile to lead", "error", err, "leadId", conv.LeadID)
	}

	if email, phone := detectContact(text, s.cfg.GetPhoneRegion()); email != "" || phone != "" {
		if _, err := s.leads.CaptureContact(ctx, conv.LeadID, conv.ID, email, phone); err != nil {
			s.log.Error("capture contact", "error", err, "leadId", conv.LeadID)
		}
	}
}

// finalize marks the conversation ended, writes the handover summary
// and publishes ConversationEnded.
func (s *Service) finalize(ctx context.Context, conv domain.Conversation, orch *engine.Orchestrator, reason string) (domain.Conversation, error) {
	summary := s.summarize(ctx, orch)

	ended, err := s.repo.End(ctx, conv.ID, reason, summary)
	if err != nil {
		s.log.DatabaseError("end conversation", err)
		return domain.Conversation{}, apperr.Internal("could not end conversation").WithOp("conversation.End")
	}
	if summary != "" {
		if _, err := s.leads.ApplyProfile(ctx, conv.LeadID, conv.ID, leaddomain.ProfileUpdate{Stage: string(engine.StageEnded)}, summary); err != nil {
			s.log.Error("store summary on lead", "error", err, "leadId", conv.LeadID)
		}
	}

	s.bus.Publish(ctx, events.ConversationEnded{
		BaseEvent:      events.NewBaseEvent(),
		ConversationID: conv.ID,
		LeadID:         conv.LeadID,
		Reason:         reason,
		UserTurns:      orch.UserTurns(),
		Summary:        summary,
	})
	return ended, nil
}

func (s *Service) summarize(ctx context.Context, orch *engine.Orchestrator) string {
	gctx, cancel := context.WithTimeout(ctx, s.cfg.GetGenerateTimeout())
	defer cancel()

	summary, err := s.generator.Generate(gctx, BuildSummaryPrompt(orch.Profile()), orch.Recent())
	if err != nil {
		s.log.CollaboratorDegraded("generator", "summarize", err)
		return ""
	}
	return summary
}

func (s *Service) lock(conversationID uuid.UUID) *semaphore.Weighted {
	sem, _ := s.locks.LoadOrStore(conversationID, semaphore.NewWeighted(1))
	return sem.(*semaphore.Weighted)
}

func endReason(res engine.Result) string {
	if res.EndCause != engine.EndCauseNone {
		return string(res.EndCause)
	}
	return "completed"
}

func profileMap(p engine.LeadProfile) map[string]string {
	out := make(map[string]string, len(p.Fields))
	for k, v := range p.Fields {
		out[string(k)] = v
	}
	return out
}
