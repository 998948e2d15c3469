package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-backend/models"
)

func TestCodecRoundTrip(t *testing.T) {
	for _, b := range [][]byte{{}, {0}, {0xff, 0x00, 0x10}, []byte("ciphertext bytes")} {
		got, err := Decode(Encode(b))
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}

	got, err := Decode("")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode("not base64!")
	assert.True(t, errors.Is(err, models.ErrTransport))

	_, err = DecodeAll([]string{"AAE=", "%%"})
	assert.True(t, errors.Is(err, models.ErrTransport))
	assert.Contains(t, err.Error(), "entry 1")
}

func TestAssessRequestRoundTrip(t *testing.T) {
	eq := &models.EncryptedQuestionnaire{
		EncryptedResponses: [][]byte{{1, 2}, {3}, {}},
		EncryptedMetadata:  models.EncryptedMetadata{Timestamp: []byte{9}, QuestionCount: []byte{8}},
		PublicKey:          []byte(`{"scheme":"paillier"}`),
	}
	body, err := json.Marshal(NewAssessRequest(eq))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"encryptedResponses"`)
	assert.Contains(t, string(body), `"questionCount"`)

	var req AssessRequest
	require.NoError(t, json.Unmarshal(body, &req))
	back, err := req.Questionnaire()
	require.NoError(t, err)
	assert.Equal(t, eq, back)
}

func TestAssessResponseDataRoundTrip(t *testing.T) {
	p := &models.Prediction{
		EncryptedLevel:      []byte{1, 2, 3},
		EncryptedConfidence: []byte{4, 5},
		ProcessedAt:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		AssessmentID:        "a-1",
	}
	back, err := NewAssessResponseData(p).Prediction()
	require.NoError(t, err)
	assert.Equal(t, p, back)
}

func TestClientAssess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ml"+PathAssess, r.URL.Path)

		var req AssessRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.EncryptedResponses, 9)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(APIResponse{
			Success: true,
			Message: "Assessment processed successfully",
			Status:  http.StatusOK,
			Data: AssessResponseData{
				EncryptedDepressionLevel: Encode([]byte{7}),
				EncryptedConfidenceScore: Encode([]byte{8}),
				ProcessedAt:              "2024-05-01T12:00:00Z",
				AssessmentID:             "abc",
			},
		})
	}))
	defer srv.Close()

	eq := &models.EncryptedQuestionnaire{PublicKey: []byte("pk")}
	for i := 0; i < 9; i++ {
		eq.EncryptedResponses = append(eq.EncryptedResponses, []byte{byte(i)})
	}

	p, err := NewClient(srv.URL+"/ml/", time.Second).Assess(context.Background(), eq)
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, p.EncryptedLevel)
	assert.Equal(t, []byte{8}, p.EncryptedConfidence)
	assert.Equal(t, "abc", p.AssessmentID)
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(APIResponse{Success: false, Message: "Missing required fields: publicKey", Status: 400})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Assess(context.Background(), &models.EncryptedQuestionnaire{})
	var terr *models.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusBadRequest, terr.Status)
	assert.Contains(t, err.Error(), "publicKey")
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).ModelInfo(context.Background())
	assert.True(t, errors.Is(err, models.ErrTransport))
}

func TestClientTimeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-done
	}))
	defer srv.Close()
	defer close(done)

	_, err := NewClient(srv.URL, 50*time.Millisecond).Health(context.Background())
	assert.True(t, errors.Is(err, models.ErrTransport))
}
