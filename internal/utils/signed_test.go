package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedActionRoundTrip(t *testing.T) {
	orderID := uuid.New()

	token, err := GenerateSignedAction("secret", "payment-edit", orderID, time.Hour)
	require.NoError(t, err)

	got, err := ParseSignedAction("secret", "payment-edit", token)
	require.NoError(t, err)
	assert.Equal(t, orderID, got)
}

func TestSignedActionWrongPurpose(t *testing.T) {
	token, err := GenerateSignedAction("secret", "payment-edit", uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = ParseSignedAction("secret", "account-delete", token)
	assert.Error(t, err)
}

func TestSignedActionWrongSecret(t *testing.T) {
	token, err := GenerateSignedAction("secret", "payment-edit", uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = ParseSignedAction("other-secret", "payment-edit", token)
	assert.Error(t, err)
}

func TestSignedActionExpired(t *testing.T) {
	token, err := GenerateSignedAction("secret", "payment-edit", uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = ParseSignedAction("secret", "payment-edit", token)
	assert.Error(t, err)
}
