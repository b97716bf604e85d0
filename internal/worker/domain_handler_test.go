package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ultrazend/ultrazend/internal/model"
)

// --- local mock for TaskEnqueuer ---

type mockTaskEnqueuer struct{ mock.Mock }

func (m *mockTaskEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(task, opts)
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

// --- local mock for DomainDNSRecordRepository ---

type mockDNSRecordRepo struct{ mock.Mock }

func (m *mockDNSRecordRepo) Create(ctx context.Context, record *model.DomainDNSRecord) error {
	return m.Called(ctx, record).Error(0)
}
func (m *mockDNSRecordRepo) ListByDomainID(ctx context.Context, domainID uuid.UUID) ([]model.DomainDNSRecord, error) {
	args := m.Called(ctx, domainID)
	return args.Get(0).([]model.DomainDNSRecord), args.Error(1)
}
func (m *mockDNSRecordRepo) Update(ctx context.Context, record *model.DomainDNSRecord) error {
	return m.Called(ctx, record).Error(0)
}
func (m *mockDNSRecordRepo) DeleteByDomainID(ctx context.Context, domainID uuid.UUID) error {
	return m.Called(ctx, domainID).Error(0)
}

func TestDomainVerifyHandler_ProcessTask_NoRecords(t *testing.T) {
	domainRepo := new(mockDomainRepo)
	dnsRecordRepo := new(mockDNSRecordRepo)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := NewDomainVerifyHandler(domainRepo, dnsRecordRepo, nil, logger)

	domainID := uuid.New()
	teamID := uuid.New()
	domain := &model.Domain{
		ID:        domainID,
		TeamID:    teamID,
		Name:      "example.com",
		Status:    model.DomainStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	domainRepo.On("GetByID", mock.Anything, domainID).Return(domain, nil)
	dnsRecordRepo.On("ListByDomainID", mock.Anything, domainID).Return([]model.DomainDNSRecord{}, nil)

	payload, _ := json.Marshal(DomainVerifyPayload{DomainID: domainID, TeamID: teamID})
	task := asynq.NewTask(TaskDomainVerify, payload)

	err := h.ProcessTask(context.Background(), task)
	assert.NoError(t, err)
	domainRepo.AssertExpectations(t)
}

func TestDomainVerifyHandler_ProcessTask_InvalidPayload(t *testing.T) {
	domainRepo := new(mockDomainRepo)
	dnsRecordRepo := new(mockDNSRecordRepo)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := NewDomainVerifyHandler(domainRepo, dnsRecordRepo, nil, logger)

	task := asynq.NewTask(TaskDomainVerify, []byte("invalid json"))

	err := h.ProcessTask(context.Background(), task)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshalling")
}

func TestDomainVerifyHandler_ProcessTask_DomainNotFound(t *testing.T) {
	domainRepo := new(mockDomainRepo)
	dnsRecordRepo := new(mockDNSRecordRepo)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := NewDomainVerifyHandler(domainRepo, dnsRecordRepo, nil, logger)

	domainID := uuid.New()
	teamID := uuid.New()

	domainRepo.On("GetByID", mock.Anything, domainID).Return(nil, assert.AnError)

	payload, _ := json.Marshal(DomainVerifyPayload{DomainID: domainID, TeamID: teamID})
	task := asynq.NewTask(TaskDomainVerify, payload)

	err := h.ProcessTask(context.Background(), task)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fetching domain")
}

func TestDomainVerifyHandler_ProcessTask_ReschedulesOnFailure(t *testing.T) {
	domainRepo := new(mockDomainRepo)
	dnsRecordRepo := new(mockDNSRecordRepo)
	enqueuer := new(mockTaskEnqueuer)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := NewDomainVerifyHandler(domainRepo, dnsRecordRepo, enqueuer, logger)

	domainID := uuid.New()
	teamID := uuid.New()
	domain := &model.Domain{
		ID:                   domainID,
		TeamID:               teamID,
		Name:                 "verify-reschedule.example",
		Status:               model.DomainStatusPending,
		VerificationAttempts: 0,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	records := []model.DomainDNSRecord{
		{ID: uuid.New(), DomainID: domainID, RecordType: RecordTypeVerification, DNSType: "TXT", Name: "_ultrazend-verification.verify-reschedule.example.invalid", Value: "ultrazend-verification=does-not-matter"},
	}

	domainRepo.On("GetByID", mock.Anything, domainID).Return(domain, nil)
	dnsRecordRepo.On("ListByDomainID", mock.Anything, domainID).Return(records, nil)
	dnsRecordRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	domainRepo.On("Update", mock.Anything, mock.MatchedBy(func(d *model.Domain) bool {
		return d.Status == model.DomainStatusPending && d.VerificationAttempts == 1
	})).Return(nil)
	enqueuer.On("Enqueue", mock.Anything, mock.Anything).Return(&asynq.TaskInfo{}, nil)

	payload, _ := json.Marshal(DomainVerifyPayload{DomainID: domainID, TeamID: teamID})
	task := asynq.NewTask(TaskDomainVerify, payload)

	err := h.ProcessTask(context.Background(), task)
	assert.NoError(t, err)
	domainRepo.AssertExpectations(t)
	enqueuer.AssertExpectations(t)
}

func TestDomainVerifyHandler_ProcessTask_GivesUpAfterScheduleExhausted(t *testing.T) {
	domainRepo := new(mockDomainRepo)
	dnsRecordRepo := new(mockDNSRecordRepo)
	enqueuer := new(mockTaskEnqueuer)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := NewDomainVerifyHandler(domainRepo, dnsRecordRepo, enqueuer, logger)

	domainID := uuid.New()
	teamID := uuid.New()
	domain := &model.Domain{
		ID:                   domainID,
		TeamID:               teamID,
		Name:                 "verify-giveup.example",
		Status:               model.DomainStatusPending,
		VerificationAttempts: len(verifyPollSchedule),
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	records := []model.DomainDNSRecord{
		{ID: uuid.New(), DomainID: domainID, RecordType: RecordTypeVerification, DNSType: "TXT", Name: "_ultrazend-verification.verify-giveup.example.invalid", Value: "ultrazend-verification=does-not-matter"},
	}

	domainRepo.On("GetByID", mock.Anything, domainID).Return(domain, nil)
	dnsRecordRepo.On("ListByDomainID", mock.Anything, domainID).Return(records, nil)
	dnsRecordRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	domainRepo.On("Update", mock.Anything, mock.MatchedBy(func(d *model.Domain) bool {
		return d.Status == model.DomainStatusFailed
	})).Return(nil)

	payload, _ := json.Marshal(DomainVerifyPayload{DomainID: domainID, TeamID: teamID})
	task := asynq.NewTask(TaskDomainVerify, payload)

	err := h.ProcessTask(context.Background(), task)
	assert.NoError(t, err)
	domainRepo.AssertExpectations(t)
	enqueuer.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestDomainVerifyHandler_ProcessTask_GivesUpAfterSevenDays(t *testing.T) {
	domainRepo := new(mockDomainRepo)
	dnsRecordRepo := new(mockDNSRecordRepo)
	enqueuer := new(mockTaskEnqueuer)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := NewDomainVerifyHandler(domainRepo, dnsRecordRepo, enqueuer, logger)

	domainID := uuid.New()
	teamID := uuid.New()
	domain := &model.Domain{
		ID:                   domainID,
		TeamID:               teamID,
		Name:                 "verify-old.example",
		Status:               model.DomainStatusPending,
		VerificationAttempts: 0,
		CreatedAt:            time.Now().Add(-8 * 24 * time.Hour),
		UpdatedAt:            time.Now(),
	}
	records := []model.DomainDNSRecord{
		{ID: uuid.New(), DomainID: domainID, RecordType: RecordTypeVerification, DNSType: "TXT", Name: "_ultrazend-verification.verify-old.example.invalid", Value: "ultrazend-verification=does-not-matter"},
	}

	domainRepo.On("GetByID", mock.Anything, domainID).Return(domain, nil)
	dnsRecordRepo.On("ListByDomainID", mock.Anything, domainID).Return(records, nil)
	dnsRecordRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	domainRepo.On("Update", mock.Anything, mock.MatchedBy(func(d *model.Domain) bool {
		return d.Status == model.DomainStatusFailed
	})).Return(nil)

	payload, _ := json.Marshal(DomainVerifyPayload{DomainID: domainID, TeamID: teamID})
	task := asynq.NewTask(TaskDomainVerify, payload)

	err := h.ProcessTask(context.Background(), task)
	assert.NoError(t, err)
	domainRepo.AssertExpectations(t)
	enqueuer.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestIsCriticalRecord(t *testing.T) {
	assert.True(t, isCriticalRecord(RecordTypeVerification))
	assert.False(t, isCriticalRecord(RecordTypeSPF))
	assert.False(t, isCriticalRecord(RecordTypeDKIM))
	assert.False(t, isCriticalRecord(RecordTypeMX))
	assert.False(t, isCriticalRecord(RecordTypeDMARC))
	assert.False(t, isCriticalRecord(RecordTypeReturnPath))
}

func TestVerifyOwnershipToken(t *testing.T) {
	domainRepo := new(mockDomainRepo)
	dnsRecordRepo := new(mockDNSRecordRepo)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewDomainVerifyHandler(domainRepo, dnsRecordRepo, nil, logger)

	ok, err := h.verifyOwnershipToken("_ultrazend-verification.nonexistent.invalid", "ultrazend-verification=abc123")
	assert.Error(t, err)
	assert.False(t, ok)
}
