package auth

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqy/minisocial/api"
	mock_auth "github.com/mqy/minisocial/auth/mock"
	"github.com/mqy/minisocial/form"
)

func TestRegistrationFlow(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	backend := mock_auth.NewMockAccountBackend(mockCtrl)
	flows := NewFlows(backend, NewSession(mock_auth.NewMockBackend(mockCtrl)))
	ctx := context.Background()

	// Invalid forms never reach the backend.
	err := flows.StartRegistration(ctx, &api.Registration{Username: "bob", Email: "bob@example.com", Password: "weak"}, "weak")
	assert.IsType(t, form.Errors{}, err)

	r := &api.Registration{Username: "bob ", Email: " bob@example.com", Password: "s3cret!pw"}
	require.Error(t, flows.StartRegistration(ctx, r, "s3cret!pw"), "trailing space in username")

	r.Username = "bob"
	gomock.InOrder(
		backend.EXPECT().SendRegistrationOTP(ctx, "bob@example.com").Return(nil),
		backend.EXPECT().VerifyRegistrationOTP(ctx, "bob@example.com", "123456").Return(nil),
		backend.EXPECT().Register(ctx, &api.Registration{Username: "bob", Email: "bob@example.com", Password: "s3cret!pw"}).Return(nil),
	)
	require.NoError(t, flows.StartRegistration(ctx, r, "s3cret!pw"))

	assert.Error(t, flows.CompleteRegistration(ctx, r, "123"))
	require.NoError(t, flows.CompleteRegistration(ctx, r, "123456"))
}

func TestPasswordResetFlow(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	backend := mock_auth.NewMockAccountBackend(mockCtrl)
	flows := NewFlows(backend, NewSession(mock_auth.NewMockBackend(mockCtrl)))
	ctx := context.Background()

	gomock.InOrder(
		backend.EXPECT().RequestPasswordOTP(ctx, "alice@example.com").Return(nil),
		backend.EXPECT().VerifyPasswordOTP(ctx, "alice@example.com", "654321").
			Return(&api.Error{StatusCode: 400, Detail: "Invalid OTP"}),
		backend.EXPECT().VerifyPasswordOTP(ctx, "alice@example.com", "123456").Return(nil),
		backend.EXPECT().ResetPassword(ctx, "alice@example.com", "123456", "n3w!passw").Return(nil),
	)

	assert.Error(t, flows.RequestPasswordChange(ctx, ""))
	require.NoError(t, flows.RequestPasswordChange(ctx, "alice@example.com"))

	err := flows.VerifyPasswordChange(ctx, "alice@example.com", "654321")
	assert.Equal(t, "Invalid OTP", api.Detail(err, "Invalid OTP"))
	require.NoError(t, flows.VerifyPasswordChange(ctx, "alice@example.com", "123456"))

	assert.Equal(t, form.Errors{"confirm_password": "Passwords do not match"},
		flows.ResetPassword(ctx, "alice@example.com", "123456", "n3w!passw", "n3w!pass"))
	require.NoError(t, flows.ResetPassword(ctx, "alice@example.com", "123456", "n3w!passw", "n3w!passw"))
}

func TestDeleteAccountClearsSession(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	sessionBackend := mock_auth.NewMockBackend(mockCtrl)
	sessionBackend.EXPECT().Profile(gomock.Any()).Return(alice, nil)
	session := NewSession(sessionBackend)
	require.NoError(t, session.Init(context.Background()))

	backend := mock_auth.NewMockAccountBackend(mockCtrl)
	backend.EXPECT().RequestAccountDeletion(gomock.Any()).Return(nil)
	backend.EXPECT().ConfirmAccountDeletion(gomock.Any(), "111111").Return(nil)

	flows := NewFlows(backend, session)
	require.NoError(t, flows.RequestDeletion(context.Background()))
	assert.Error(t, flows.ConfirmDeletion(context.Background(), " "))
	require.NoError(t, flows.ConfirmDeletion(context.Background(), "111111"))
	assert.Nil(t, session.User())

	_, err := session.RequireUser()
	assert.ErrorIs(t, err, ErrRedirectLogin)
}
