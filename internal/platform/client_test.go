package platform

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleSnapshot = `{
  "rounds": [
    {
      "round_id": 7,
      "name": "Technical",
      "skill_matrix": [
        {"skill_id": 101, "name": "Go", "level": "Expert", "requirement": "Must have", "ai_skill_id": 1},
        {"skill_id": "102", "name": "SQL", "level": "Intermediate", "requirement": "Nice to have", "ai_skill_id": null}
      ],
      "question_pools": [
        {"pool_id": 11, "name": "Go pool", "questions": [{"question_id": 501, "ai_question_id": 31}]}
      ]
    },
    {"round_id": "8", "name": "Culture", "skill_matrix": [], "question_pools": []}
  ]
}`

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: url, Token: "secret", Timeout: 2 * time.Second}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestGetRequisitionDetails_Success(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleSnapshot))
	}))
	defer server.Close()

	snap, err := newTestClient(t, server.URL).GetRequisitionDetails(context.Background(), "REQ-1", "42")
	require.NoError(t, err)

	assert.Equal(t, "/req-details/REQ-1/42", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	require.Len(t, snap.Rounds, 2)

	round := snap.Rounds[0]
	require.NotNil(t, round.RoundID)
	assert.Equal(t, ID(7), *round.RoundID)
	require.Len(t, round.SkillMatrix, 2)
	assert.Equal(t, ID(102), *round.SkillMatrix[1].SkillID)
	assert.Nil(t, round.SkillMatrix[1].CorrelationID)
	assert.Equal(t, ID(501), *round.QuestionPools[0].Questions[0].QuestionID)
	assert.Equal(t, ID(8), *snap.Rounds[1].RoundID)
}

func TestGetRequisitionDetails_NonSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).GetRequisitionDetails(context.Background(), "REQ-1", "42")
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)
	assert.Contains(t, err.Error(), "maintenance")
}

func TestGetRequisitionDetails_RedirectIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).GetRequisitionDetails(context.Background(), "REQ-1", "42")
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusFound, perr.StatusCode)
	assert.Contains(t, perr.Message, "redirect")
}

func TestGetRequisitionDetails_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := NewClient(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond}, nil)
	require.NoError(t, err)

	_, err = c.GetRequisitionDetails(context.Background(), "REQ-1", "42")
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "request timed out", perr.Message)
}

func TestGetRequisitionDetails_BadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).GetRequisitionDetails(context.Background(), "REQ-1", "42")
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "decode")
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "not a url"}, nil)
	assert.Error(t, err)
}

func TestSelectRound(t *testing.T) {
	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(sampleSnapshot), &snap))

	stored := int64(8)
	assert.Equal(t, "Culture", snap.SelectRound(&stored).Name)

	missing := int64(99)
	assert.Equal(t, "Technical", snap.SelectRound(&missing).Name)
	assert.Equal(t, "Technical", snap.SelectRound(nil).Name)

	assert.Nil(t, (&Snapshot{}).SelectRound(nil))
}

func TestUsableEntries(t *testing.T) {
	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(sampleSnapshot), &snap))

	// one correlated skill + one pooled question
	assert.Equal(t, 2, snap.Rounds[0].UsableEntries())
	assert.Equal(t, 0, snap.Rounds[1].UsableEntries())
	assert.Equal(t, 0, (*Round)(nil).UsableEntries())
}

func TestID_UnmarshalJSON(t *testing.T) {
	var v struct {
		A *ID `json:"a"`
		B *ID `json:"b"`
		C *ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 5, "b": "6", "c": null}`), &v))
	assert.Equal(t, int64(5), *v.A.Int64())
	assert.Equal(t, int64(6), *v.B.Int64())
	assert.Nil(t, v.C.Int64())

	assert.Error(t, json.Unmarshal([]byte(`{"a": "abc"}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"a": 1.5}`), &v))
}

func TestID_UnmarshalJSON_LargeValues(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int64
	}{
		{"number above 2^53", `9007199254740993`, 9007199254740993},
		{"string above 2^53", `"9007199254740993"`, 9007199254740993},
		{"max int64", `9223372036854775807`, math.MaxInt64},
		{"integral decimal", `42.0`, 42},
		{"exponent", `1e3`, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &id))
			assert.Equal(t, tt.want, int64(id))
		})
	}

	var id ID
	assert.Error(t, json.Unmarshal([]byte(`9223372036854775808`), &id), "overflows int64")
	assert.Error(t, json.Unmarshal([]byte(`9007199254740993.0`), &id), "beyond exact float range")
}

func TestSkillEntry_LargeIDsCorrelateExactly(t *testing.T) {
	var e SkillEntry
	require.NoError(t, json.Unmarshal([]byte(`{"skill_id": 9007199254740993, "ai_skill_id": "9007199254740993"}`), &e))
	assert.Equal(t, *e.SkillID, *e.CorrelationID)
	assert.Equal(t, int64(9007199254740993), *e.SkillID.Int64())
}
