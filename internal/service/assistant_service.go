package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"health-assistant/internal/model"
	"health-assistant/internal/storage"
	"health-assistant/internal/triage"
	"health-assistant/pkg/logger"
)

type Options struct {
	SystemPrompt   string
	Model          string
	Temperature    float32
	MaxTokens      int
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	PersistTimeout time.Duration
}

type ChatInput struct {
	Message string
	History []model.HistoryMessage
	UserID  string
}

type ChatResult struct {
	Response model.TriageResponse
	// Persisted is nil when no user ID was given.
	Persisted *PersistTask
}

// PersistTask is the background write of a ChatRecord. Its outcome is
// already logged; Wait only exists for callers that need to observe it.
type PersistTask struct {
	done chan struct{}
	err  error
}

func (t *PersistTask) Wait() error {
	if t == nil {
		return nil
	}
	<-t.done
	return t.err
}

type AssistantService struct {
	chatModel einoModel.BaseChatModel
	store     storage.ChatRecordStore
	assembler *Assembler
	opts      Options
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewAssistantService(chatModel einoModel.BaseChatModel, store storage.ChatRecordStore, assembler *Assembler, opts Options, log logrus.FieldLogger) *AssistantService {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 5 * time.Second
	}
	if assembler == nil {
		assembler = NewAssembler(0, 0, nil)
	}
	return &AssistantService{
		chatModel: chatModel,
		store:     store,
		assembler: assembler,
		opts:      opts,
		log:       log,
		now:       time.Now,
	}
}

// Chat triages one message. Emergencies are answered without calling the
// model. Persistence runs in the background and never changes the result.
func (s *AssistantService) Chat(ctx context.Context, in ChatInput) (*ChatResult, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, ErrMessageRequired
	}
	log := logger.FromContext(ctx, s.log)

	if keyword, ok := triage.MatchEmergency(in.Message); ok {
		log.WithField("keyword", keyword).Warn("Emergency keyword matched, skipping model call")
		resp := triage.EmergencyResponse()
		return &ChatResult{
			Response:  resp,
			Persisted: s.persist(ctx, log, in, resp, []string{in.Message}),
		}, nil
	}

	messages := s.assembler.Assemble(s.opts.SystemPrompt, in.History, in.Message)
	raw, err := s.generate(ctx, log, messages)
	if err != nil {
		return nil, err
	}

	resp := triage.Normalize(raw)
	symptoms := triage.ExtractSymptoms(in.Message)

	return &ChatResult{
		Response:  resp,
		Persisted: s.persist(ctx, log, in, resp, symptoms),
	}, nil
}

func (s *AssistantService) generate(ctx context.Context, log logrus.FieldLogger, messages []*schema.Message) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.opts.RetryDelay * time.Duration(attempt)
			log.WithFields(logrus.Fields{
				"attempt": attempt,
				"delay":   delay,
			}).Warnf("Retrying model call: %v", lastErr)

			select {
			case <-ctx.Done():
				return "", classifyUpstream(ctx.Err())
			case <-time.After(delay):
			}
		}

		content, err := s.generateOnce(ctx, messages)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if !isTransient(ctx, err) {
			break
		}
	}

	log.WithError(lastErr).Error("Model call failed")
	return "", classifyUpstream(lastErr)
}

func (s *AssistantService) generateOnce(ctx context.Context, messages []*schema.Message) (string, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	var opts []einoModel.Option
	if s.opts.Model != "" {
		opts = append(opts, einoModel.WithModel(s.opts.Model))
	}
	opts = append(opts, einoModel.WithTemperature(s.opts.Temperature))
	if s.opts.MaxTokens > 0 {
		opts = append(opts, einoModel.WithMaxTokens(s.opts.MaxTokens))
	}

	msg, err := s.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}

// persist starts the record write on a context that outlives the request.
func (s *AssistantService) persist(ctx context.Context, log logrus.FieldLogger, in ChatInput, resp model.TriageResponse, symptoms []string) *PersistTask {
	if in.UserID == "" || s.store == nil {
		return nil
	}

	record, err := s.newRecord(in, resp, symptoms)
	task := &PersistTask{done: make(chan struct{})}
	if err != nil {
		task.err = fmt.Errorf("%w: %v", ErrPersistFailed, err)
		log.WithError(err).WithField("user_id", in.UserID).Error("Failed to build chat record")
		close(task.done)
		return task
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PersistTimeout)
	go func() {
		defer close(task.done)
		defer cancel()

		if err := s.store.Create(writeCtx, record); err != nil {
			task.err = fmt.Errorf("%w: %v", ErrPersistFailed, err)
			log.WithError(err).WithFields(logrus.Fields{
				"user_id":   record.UserID,
				"record_id": record.ID,
			}).Error("Failed to save chat record")
			return
		}
		log.WithField("record_id", record.ID).Debug("Chat record saved")
	}()
	return task
}

func (s *AssistantService) newRecord(in ChatInput, resp model.TriageResponse, symptoms []string) (*model.ChatRecord, error) {
	reply, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &model.ChatRecord{
		ID:     uuid.New().String(),
		UserID: in.UserID,
		Messages: []model.ChatMessage{
			{Role: model.RoleUser, Content: in.Message, Timestamp: now},
			{Role: model.RoleAssistant, Content: string(reply), Timestamp: now},
		},
		Symptoms:        symptoms,
		IsEmergency:     resp.IsEmergency,
		UrgencyLevel:    resp.Urgency,
		Recommendations: resp,
		CreatedAt:       now,
	}, nil
}

// History returns a user's stored exchanges, newest first.
func (s *AssistantService) History(ctx context.Context, userID string, limit int) ([]*model.ChatRecord, error) {
	if s.store == nil {
		return []*model.ChatRecord{}, nil
	}
	records, err := s.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat records: %w", err)
	}
	return records, nil
}
