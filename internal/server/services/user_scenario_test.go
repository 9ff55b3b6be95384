package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_SignupVerifyTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.svc.Signup(ctx, "Ann", "ann@x.com", "Password1")
	require.NoError(t, err)
	assert.False(t, u.IsVerified)

	code := env.notif.last().Code
	require.Equal(t, code, *env.repo.stored("ann@x.com").PendingCode)

	expectTx(env.mock, true)
	require.NoError(t, env.svc.VerifyEmail(ctx, "ann@x.com", code))

	expectTx(env.mock, false)
	require.ErrorIs(t, env.svc.VerifyEmail(ctx, "ann@x.com", code), common.ErrAlreadyVerified)
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestScenario_ForgotResetLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Signup(ctx, "Bob", "bob@x.com", "Password1")
	require.NoError(t, err)
	expectTx(env.mock, true)
	require.NoError(t, env.svc.VerifyEmail(ctx, "bob@x.com", env.notif.last().Code))

	expectTx(env.mock, true)
	require.NoError(t, env.svc.ForgotPassword(ctx, "bob@x.com"))
	resetCode := env.notif.last().Code

	expectTx(env.mock, true)
	require.NoError(t, env.svc.ResetPassword(ctx, "bob@x.com", resetCode, "Brand-new-1"))

	_, err = env.svc.Login(ctx, "bob@x.com", "Password1")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)

	pair, err := env.svc.Login(ctx, "bob@x.com", "Brand-new-1")
	require.NoError(t, err)

	refreshed, err := env.svc.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// rotation is advisory: the previous refresh token keeps working until expiry
	_, err = env.svc.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NoError(t, env.mock.ExpectationsWereMet())
}

// A verification code left pending can also satisfy a reset, because both
// flows share one code slot.
func TestScenario_SharedCodeSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Signup(ctx, "Cy", "cy@x.com", "Password1")
	require.NoError(t, err)
	verifyCode := env.notif.last().Code

	expectTx(env.mock, true)
	require.NoError(t, env.svc.ResetPassword(ctx, "cy@x.com", verifyCode, "Password2"))

	expectTx(env.mock, false)
	require.ErrorIs(t, env.svc.VerifyEmail(ctx, "cy@x.com", verifyCode), common.ErrInvalidCode)
	require.NoError(t, env.mock.ExpectationsWereMet())
}

func TestScenario_EventsRecorded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _ = env.svc.Signup(ctx, "Ann", "ann@x.com", "Password1")
	_, _ = env.svc.Signup(ctx, "Ann", "ann@x.com", "Password1")
	_, _ = env.svc.Login(ctx, "ann@x.com", "wrong-password")
	expectTx(env.mock, false)
	_ = env.svc.VerifyEmail(ctx, "ann@x.com", "000000")

	assert.Equal(t, []string{
		"signup/success",
		"signup/email_taken",
		"login/invalid_credentials",
		"verify/invalid_code",
	}, env.events.all())
}
