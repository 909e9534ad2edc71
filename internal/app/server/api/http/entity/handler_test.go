package entity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	domain "studiosync/internal/domain/entity"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Upsert(ctx context.Context, env domain.Envelope) error {
	args := m.Called(ctx, env)
	return args.Error(0)
}

func (m *MockService) Delete(ctx context.Context, typ domain.Type, id string) error {
	args := m.Called(ctx, typ, id)
	return args.Error(0)
}

func (m *MockService) Get(ctx context.Context, typ domain.Type, id string) (*domain.Envelope, error) {
	args := m.Called(ctx, typ, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Envelope), args.Error(1)
}

func (m *MockService) ListUpdatedSince(ctx context.Context, typ domain.Type, since time.Time) ([]domain.Envelope, error) {
	args := m.Called(ctx, typ, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Envelope), args.Error(1)
}

func TestHandler_Upsert(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, nil, nil)

	updated := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	svc.On("Upsert", mock.Anything, mock.MatchedBy(func(env domain.Envelope) bool {
		return env.Type == domain.TypeBooking &&
			env.ID == "b-1" &&
			string(env.Payload) == `{"client":"Ana"}` &&
			env.UpdatedAt.Equal(updated)
	})).Return(nil)

	input := &upsertInput{Type: "booking", ID: "b-1"}
	input.Body.Payload = json.RawMessage(`{"client":"Ana"}`)
	input.Body.UpdatedAt = updated

	resp, err := h.upsert(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, "OK", resp.Body.Status)

	svc.AssertExpectations(t)
}

func TestHandler_Upsert_CarriesDeletedFlag(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, nil, nil)

	svc.On("Upsert", mock.Anything, mock.MatchedBy(func(env domain.Envelope) bool {
		return env.ID == "b-1" && env.Deleted
	})).Return(nil)

	input := &upsertInput{Type: "booking", ID: "b-1"}
	input.Body.Payload = json.RawMessage(`{"deleted_at":"2026-08-30T10:00:00Z"}`)
	input.Body.UpdatedAt = time.Now().UTC()
	input.Body.Deleted = true

	_, err := h.upsert(context.Background(), input)
	assert.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestHandler_Upsert_UnknownType(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, nil, nil)

	svc.On("Upsert", mock.Anything, mock.Anything).Return(domain.ErrUnknownType)

	input := &upsertInput{Type: "martian", ID: "x"}
	input.Body.Payload = json.RawMessage(`{}`)

	_, err := h.upsert(context.Background(), input)
	assert.Error(t, err)

	var statusErr huma.StatusError
	assert.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 422, statusErr.GetStatus())
}

func TestHandler_Delete(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, nil, nil)

	svc.On("Delete", mock.Anything, domain.TypeBooking, "b-1").Return(nil)

	resp, err := h.delete(context.Background(), &deleteInput{Type: "booking", ID: "b-1"})
	assert.NoError(t, err)
	assert.Equal(t, "OK", resp.Body.Status)

	svc.AssertExpectations(t)
}

func TestHandler_Get(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, nil, nil)

	env := &domain.Envelope{Type: domain.TypeBooking, ID: "b-1", Payload: json.RawMessage(`{}`)}
	svc.On("Get", mock.Anything, domain.TypeBooking, "b-1").Return(env, nil)

	resp, err := h.get(context.Background(), &getInput{Type: "booking", ID: "b-1"})
	assert.NoError(t, err)
	assert.Equal(t, "b-1", resp.Body.ID)
}

func TestHandler_Get_NotFound(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, nil, nil)

	svc.On("Get", mock.Anything, domain.TypeBooking, "missing").Return(nil, domain.ErrNotFound)

	_, err := h.get(context.Background(), &getInput{Type: "booking", ID: "missing"})
	assert.Error(t, err)

	var statusErr huma.StatusError
	assert.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.GetStatus())
}

func TestHandler_List(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, nil, nil)

	since := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	rows := []domain.Envelope{
		{Type: domain.TypeBooking, ID: "b-1", Payload: json.RawMessage(`{}`), UpdatedAt: since.Add(time.Hour)},
	}
	svc.On("ListUpdatedSince", mock.Anything, domain.TypeBooking, since).Return(rows, nil)

	resp, err := h.list(context.Background(), &listInput{Type: "booking", Since: since})
	assert.NoError(t, err)
	assert.Len(t, resp.Body.Rows, 1)
	assert.Equal(t, "b-1", resp.Body.Rows[0].ID)
}

func TestHandler_List_EmptyIsNotNull(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, nil, nil)

	svc.On("ListUpdatedSince", mock.Anything, domain.TypeBooking, mock.Anything).
		Return([]domain.Envelope(nil), nil)

	resp, err := h.list(context.Background(), &listInput{Type: "booking"})
	assert.NoError(t, err)
	assert.NotNil(t, resp.Body.Rows)
	assert.Empty(t, resp.Body.Rows)
}
