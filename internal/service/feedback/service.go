package feedback

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/lgt-bot/backend/internal/model/feedback"
)

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range []string{"name", "email", "feedback"} {
		if msg, ok := e.Fields[field]; ok {
			parts = append(parts, field+": "+msg)
		}
	}
	return "invalid feedback: " + strings.Join(parts, ", ")
}

// Service validates and stores feedback submissions.
type Service struct {
	store    feedback.Store
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wraps store; a nil store discards submissions.
func NewService(store feedback.Store, logger *zap.Logger) *Service {
	if store == nil {
		store = feedback.NopStore{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(fld.Name)
		}
		return name
	})

	return &Service{
		store:    store,
		validate: validate,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates entry and hands it to the store. Fields are checked with
// surrounding whitespace removed but stored as submitted.
func (s *Service) Submit(ctx context.Context, entry feedback.Entry) (feedback.Record, error) {
	trimmed := feedback.Entry{
		Name:     strings.TrimSpace(entry.Name),
		Email:    strings.TrimSpace(entry.Email),
		Feedback: strings.TrimSpace(entry.Feedback),
	}

	if err := s.validate.Struct(trimmed); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return feedback.Record{}, fmt.Errorf("validate feedback: %w", err)
		}
		verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
		for _, fe := range fieldErrs {
			verr.Fields[fe.Field()] = describe(fe)
		}
		return feedback.Record{}, verr
	}

	record := feedback.Record{
		ID:        uuid.NewString(),
		Name:      entry.Name,
		Email:     entry.Email,
		Feedback:  entry.Feedback,
		CreatedAt: s.now(),
	}
	if err := s.store.Save(ctx, record); err != nil {
		return feedback.Record{}, fmt.Errorf("save feedback: %w", err)
	}

	s.logger.Info("feedback received", zap.String("id", record.ID))
	return record, nil
}

// Form applies a submission to form, moving it to the confirmation view
// only when the entry is accepted.
func (s *Service) Form(ctx context.Context, form *feedback.Form, entry feedback.Entry) error {
	form.Fill(entry)
	record, err := s.Submit(ctx, entry)
	if err != nil {
		return err
	}
	form.MarkSubmitted(feedback.Entry{Name: record.Name, Email: record.Email, Feedback: record.Feedback})
	return nil
}

// List returns stored submissions.
func (s *Service) List(ctx context.Context) ([]feedback.Record, error) {
	return s.store.List(ctx)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}
