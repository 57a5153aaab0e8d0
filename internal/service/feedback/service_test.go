package feedback_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/lgt-bot/backend/internal/model/feedback"
	feedbacksvc "github.com/zhouzirui/lgt-bot/backend/internal/service/feedback"
)

type failingStore struct{ feedback.NopStore }

func (failingStore) Save(context.Context, feedback.Record) error { return errors.New("disk full") }

func TestSubmitStoresEntry(t *testing.T) {
	store := feedback.NewMemoryStore()
	svc := feedbacksvc.NewService(store, nil)

	record, err := svc.Submit(context.Background(), feedback.Entry{Name: "Ada", Email: "ada@example.com", Feedback: "Love the previews"})
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, record, list[0])
}

func TestSubmitValidation(t *testing.T) {
	svc := feedbacksvc.NewService(nil, nil)

	tests := []struct {
		name   string
		entry  feedback.Entry
		fields []string
	}{
		{"all empty", feedback.Entry{}, []string{"name", "email", "feedback"}},
		{"blank name", feedback.Entry{Name: "   ", Email: "a@b.co", Feedback: "x"}, []string{"name"}},
		{"bad email", feedback.Entry{Name: "Ada", Email: "not-an-email", Feedback: "x"}, []string{"email"}},
		{"missing feedback", feedback.Entry{Name: "Ada", Email: "a@b.co"}, []string{"feedback"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.entry)
			var verr *feedbacksvc.ValidationError
			require.ErrorAs(t, err, &verr)

			got := make([]string, 0, len(verr.Fields))
			for field := range verr.Fields {
				got = append(got, field)
			}
			assert.ElementsMatch(t, tt.fields, got)
		})
	}
}

func TestSubmitStoreFailure(t *testing.T) {
	svc := feedbacksvc.NewService(failingStore{}, nil)
	_, err := svc.Submit(context.Background(), feedback.Entry{Name: "Ada", Email: "ada@example.com", Feedback: "x"})
	require.Error(t, err)

	var verr *feedbacksvc.ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestFormShowsConfirmationVerbatim(t *testing.T) {
	svc := feedbacksvc.NewService(nil, nil)
	var form feedback.Form

	entry := feedback.Entry{Name: "Ada  Lovelace", Email: "ada@example.com", Feedback: "Nice"}
	require.NoError(t, svc.Form(context.Background(), &form, entry))
	assert.Equal(t, feedback.StateSubmitted, form.State())
	assert.Equal(t, "Ada  Lovelace", form.Entry().Name)
	assert.Equal(t, "ada@example.com", form.Entry().Email)

	form.Reset()
	assert.Equal(t, feedback.StateEditing, form.State())
	assert.Equal(t, feedback.Entry{}, form.Entry())
}

func TestFormStaysEditingOnInvalidEntry(t *testing.T) {
	svc := feedbacksvc.NewService(nil, nil)
	var form feedback.Form

	entry := feedback.Entry{Name: "Ada", Email: "nope", Feedback: "Nice"}
	require.Error(t, svc.Form(context.Background(), &form, entry))
	assert.Equal(t, feedback.StateEditing, form.State())
	assert.Equal(t, entry, form.Entry())
}
