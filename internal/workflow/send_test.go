package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mailroom/backend/internal/models"
	"mailroom/backend/internal/storage/storagetest"
	"mailroom/backend/internal/workflow"
)

func TestSend_Success(t *testing.T) {
	store := new(storagetest.MockStorage)
	sender := new(MockSender)

	msg := messageFixture(1, models.StatusApproved)
	store.On("FindMessageByID", uint(1)).Return(msg, nil)
	store.On("FindMessageByIDForUpdate", uint(1)).Return(msg, nil)
	store.On("SaveMessage", msg).Return(nil)
	store.On("CreateApproval", mock.AnythingOfType("*models.ApprovalEvent")).Return(nil)

	sender.On("Send", mock.Anything, "buyer@example.com", "Re: Quote for 100 units", msg.AIDraft).Return(nil)

	svc := workflow.NewService(store, allowAll{}, sender, new(MockClassifier), new(MockDrafter))
	err := svc.Send(context.Background(), approver, 1)

	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, msg.Status)
	require.NotNil(t, msg.SentAt)

	store.AssertCalled(t, "CreateApproval", mock.MatchedBy(func(ev *models.ApprovalEvent) bool {
		return ev.Stage == models.StageSend &&
			ev.Decision == models.DecisionApproved &&
			ev.DecidedAt != nil
	}))
}

func TestSend_TransportFailureLeavesApproved(t *testing.T) {
	store := new(storagetest.MockStorage)
	sender := new(MockSender)

	msg := messageFixture(1, models.StatusApproved)
	store.On("FindMessageByID", uint(1)).Return(msg, nil)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp: 451 try again later"))

	svc := workflow.NewService(store, allowAll{}, sender, new(MockClassifier), new(MockDrafter))
	err := svc.Send(context.Background(), approver, 1)

	assert.ErrorIs(t, err, workflow.ErrSendFailed)
	assert.Equal(t, models.StatusApproved, msg.Status, "failed send must leave the message retryable")
	assert.Nil(t, msg.SentAt)
	store.AssertNotCalled(t, "SaveMessage", mock.Anything)
	store.AssertNotCalled(t, "CreateApproval", mock.Anything)
}

func TestSend_RetryAfterFailureSucceeds(t *testing.T) {
	store := new(storagetest.MockStorage)
	sender := new(MockSender)

	msg := messageFixture(1, models.StatusApproved)
	store.On("FindMessageByID", uint(1)).Return(msg, nil)
	store.On("FindMessageByIDForUpdate", uint(1)).Return(msg, nil)
	store.On("SaveMessage", msg).Return(nil)
	store.On("CreateApproval", mock.AnythingOfType("*models.ApprovalEvent")).Return(nil)

	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp: connection reset")).Once()
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()

	svc := workflow.NewService(store, allowAll{}, sender, new(MockClassifier), new(MockDrafter))

	err := svc.Send(context.Background(), approver, 1)
	assert.ErrorIs(t, err, workflow.ErrSendFailed)
	assert.Equal(t, models.StatusApproved, msg.Status)

	err = svc.Send(context.Background(), approver, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, msg.Status)
	sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestSend_HumanDraftWinsOverMachineDraft(t *testing.T) {
	store := new(storagetest.MockStorage)
	sender := new(MockSender)

	msg := messageFixture(1, models.StatusApproved)
	msg.DraftBody = "Hand-edited final reply."
	msg.DraftSubject = "Re: revised quotation"

	store.On("FindMessageByID", uint(1)).Return(msg, nil)
	store.On("FindMessageByIDForUpdate", uint(1)).Return(msg, nil)
	store.On("SaveMessage", msg).Return(nil)
	store.On("CreateApproval", mock.Anything).Return(nil)

	sender.On("Send", mock.Anything, "buyer@example.com", "Re: revised quotation", "Hand-edited final reply.").Return(nil)

	svc := workflow.NewService(store, allowAll{}, sender, new(MockClassifier), new(MockDrafter))
	require.NoError(t, svc.Send(context.Background(), approver, 1))
	sender.AssertExpectations(t)
}

func TestSend_ConcurrentTransitionBlocksCommit(t *testing.T) {
	store := new(storagetest.MockStorage)
	sender := new(MockSender)

	// Another instance committed SENT between our guard and the commit
	// transaction; the row lock read sees the newer status.
	msg := messageFixture(1, models.StatusApproved)
	alreadySent := messageFixture(1, models.StatusSent)

	store.On("FindMessageByID", uint(1)).Return(msg, nil)
	store.On("FindMessageByIDForUpdate", uint(1)).Return(alreadySent, nil)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := workflow.NewService(store, allowAll{}, sender, new(MockClassifier), new(MockDrafter))
	err := svc.Send(context.Background(), approver, 1)

	assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	store.AssertNotCalled(t, "SaveMessage", mock.Anything)
	store.AssertNotCalled(t, "CreateApproval", mock.Anything)
}

func TestSend_EmptyReply(t *testing.T) {
	store := new(storagetest.MockStorage)
	sender := new(MockSender)

	msg := messageFixture(1, models.StatusApproved)
	msg.AIDraft = ""
	msg.DraftBody = "   "
	store.On("FindMessageByID", uint(1)).Return(msg, nil)

	svc := workflow.NewService(store, allowAll{}, sender, new(MockClassifier), new(MockDrafter))
	err := svc.Send(context.Background(), approver, 1)

	assert.ErrorIs(t, err, workflow.ErrEmptyReply)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_RequiresApprovedStatus(t *testing.T) {
	for _, status := range []models.Status{
		models.StatusUnread, models.StatusRead, models.StatusDraft,
		models.StatusInReview, models.StatusRejected, models.StatusSent, models.StatusArchived,
	} {
		store := new(storagetest.MockStorage)
		sender := new(MockSender)
		store.On("FindMessageByID", uint(1)).Return(messageFixture(1, status), nil)

		svc := workflow.NewService(store, allowAll{}, sender, new(MockClassifier), new(MockDrafter))
		err := svc.Send(context.Background(), approver, 1)

		assert.ErrorIs(t, err, workflow.ErrInvalidTransition, "send from %s must fail", status)
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}
