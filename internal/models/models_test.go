package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivitySequenceAppendKeepsOrder(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	seq := NewActivitySequence("octocat")

	seq.Append(
		NewActivityEvent(base.Add(2*time.Hour), "Pushing commits", "1", "o/r"),
		NewActivityEvent(base, "Opening issue", "1", "o/r"),
	)
	// Second round brings an older event and a timestamp tie.
	seq.Append(
		NewActivityEvent(base.Add(-time.Hour), "Reviewing code", "2", "x/y"),
		NewActivityEvent(base, "Commenting issue", "2", "x/y"),
	)

	events := seq.Events()
	require.Len(t, events, 4)
	assert.Equal(t, "Reviewing code", events[0].ActivityType)
	assert.Equal(t, "Opening issue", events[1].ActivityType, "ties keep fetch order")
	assert.Equal(t, "Commenting issue", events[2].ActivityType)
	assert.Equal(t, "Pushing commits", events[3].ActivityType)
	assert.Equal(t, "octocat", seq.Login())
}

func TestActivitySequenceEventsIsCopy(t *testing.T) {
	seq := NewActivitySequence("octocat")
	seq.Append(NewActivityEvent(time.Now(), "Pushing commits", "1", "o/r"))

	events := seq.Events()
	events[0].ActivityType = "changed"

	assert.Equal(t, "Pushing commits", seq.Events()[0].ActivityType)
}

func TestNewActivityEventOwner(t *testing.T) {
	assert.Equal(t, "owner", NewActivityEvent(time.Now(), "a", "1", "owner/repo").RepositoryOwner)
	assert.Equal(t, "solo", NewActivityEvent(time.Now(), "a", "1", "solo").RepositoryOwner)
}

func TestParseAccountType(t *testing.T) {
	assert.Equal(t, AccountTypeUser, ParseAccountType("User"))
	assert.Equal(t, AccountTypeOrganization, ParseAccountType("Organization"))
	assert.Equal(t, AccountTypeBot, ParseAccountType("Bot"))
	assert.Equal(t, AccountTypeUnknown, ParseAccountType("Mannequin"))
}

func TestFeatureVectorJSON(t *testing.T) {
	var v FeatureVector
	for i := range v {
		v[i] = float64(i) / 10
	}

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var decoded FeatureVector
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, v, decoded)
	assert.Equal(t, 0.3, decoded.Get("ORR"))

	err = json.Unmarshal([]byte(`{"NA": 1}`), &decoded)
	assert.Error(t, err)
}

func TestFeatureNamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, name := range FeatureNames {
		assert.False(t, seen[name], name)
		seen[name] = true
	}
	assert.Len(t, seen, FeatureCount)
}

func TestBatchLifecycle(t *testing.T) {
	b := NewBatch(3)
	assert.Equal(t, BatchStatusPending, b.Status)
	assert.NotEmpty(t, b.ID)

	b.MarkStarted()
	b.Record(false)
	b.Record(true)
	b.MarkFinished(false)

	assert.Equal(t, BatchStatusCompleted, b.Status)
	assert.Equal(t, 1, b.Completed)
	assert.Equal(t, 1, b.Failed)
	assert.True(t, b.IsFinished())
	assert.NotNil(t, b.CompletedAt)
}

func TestVerdictFromLabel(t *testing.T) {
	assert.Equal(t, VerdictBot, VerdictFromLabel(LabelBot))
	assert.Equal(t, VerdictHuman, VerdictFromLabel(LabelHuman))
}
