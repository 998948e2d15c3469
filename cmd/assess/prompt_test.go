package main

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-backend/client"
	"assessment-backend/encryption"
	"assessment-backend/models"
	"assessment-backend/storage"
)

type busySubmitter struct{ calls int }

func (b *busySubmitter) Assess(ctx context.Context, eq *models.EncryptedQuestionnaire) (*models.Prediction, error) {
	b.calls++
	return nil, &models.TransportError{Op: "POST /assess-encrypted", Status: http.StatusServiceUnavailable}
}

func newSession(t *testing.T) *client.Session {
	t.Helper()
	return newSessionWith(t, nil)
}

func newSessionWith(t *testing.T, sub client.Submitter) *client.Session {
	t.Helper()
	scheme, err := encryption.NewPaillierScheme(encryption.MinPaillierKeySize)
	require.NoError(t, err)
	s := client.NewSession(client.NewKeyManager(scheme, storage.NewMemoryKeyStore(), "cli"), sub, nil)
	require.NoError(t, s.Start())
	require.NoError(t, s.Begin())
	return s
}

func TestParseAnswers(t *testing.T) {
	got, err := parseAnswers(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseAnswers([]string{"1,2,3,4,5", "1", "2", "3,4"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 1, 2, 3, 4}, got)

	_, err = parseAnswers([]string{"1,2,3"})
	assert.Error(t, err)

	_, err = parseAnswers([]string{"1,2,3,4,5,1,2,3,x"})
	assert.Error(t, err)
}

func TestAskAll(t *testing.T) {
	s := newSession(t)
	in := strings.NewReader("b\n3\nb\n4\nnope\n9\n1\n1\n1\n1\n1\n1\n1\n2\n")
	var out bytes.Buffer

	require.NoError(t, askAll(s, in, &out))
	assert.Equal(t, []int{4, 1, 1, 1, 1, 1, 1, 1, 2}, s.Answers())
	assert.Contains(t, out.String(), "Already at the first question.")
	assert.Contains(t, out.String(), "Little interest or pleasure in doing things")
}

func TestAskAllInputClosed(t *testing.T) {
	s := newSession(t)
	err := askAll(s, strings.NewReader("1\n2\n"), &bytes.Buffer{})
	assert.ErrorIs(t, err, errNoInput)
}

func TestAnswerAll(t *testing.T) {
	s := newSession(t)
	require.NoError(t, answerAll(s, []int{1, 2, 3, 4, 5, 1, 2, 3, 4}))
	assert.Equal(t, 9, s.Step())

	s = newSession(t)
	assert.Error(t, answerAll(s, []int{1, 7, 3, 4, 5, 1, 2, 3, 4}))
}

func TestSubmitRetriesOnlyWhenConfirmed(t *testing.T) {
	sub := &busySubmitter{}
	s := newSessionWith(t, sub)
	require.NoError(t, answerAll(s, []int{1, 1, 1, 1, 1, 1, 1, 1, 1}))

	confirmations := 2
	_, err := submit(context.Background(), s, func() bool {
		confirmations--
		return confirmations >= 0
	})
	require.Error(t, err)
	assert.True(t, busy(err))
	assert.Equal(t, 3, sub.calls)
	assert.Equal(t, client.StateError, s.State())
}

func TestAskRetry(t *testing.T) {
	assert.True(t, askRetry(strings.NewReader("y\n"), &bytes.Buffer{}))
	assert.False(t, askRetry(strings.NewReader("n\n"), &bytes.Buffer{}))
	assert.False(t, askRetry(strings.NewReader(""), &bytes.Buffer{}))
}
