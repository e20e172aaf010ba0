package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobdigest/internal/model"
)

func rec(title, company, url string) model.JobRecord {
	return model.JobRecord{Title: title, Company: company, URL: url, Source: "test"}
}

func TestIdentity_Deterministic(t *testing.T) {
	a := Identity("Data Engineer", "Acme", "https://x/1")
	b := Identity("Data Engineer", "Acme", "https://x/1")
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
}

func TestIdentity_MatchesMD5OfConcatenation(t *testing.T) {
	// md5("abc")
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", Identity("a", "b", "c"))
}

func TestRecordIdentity_IgnoresNonIdentityFields(t *testing.T) {
	base := model.JobRecord{Title: "SRE", Company: "Beta", URL: "https://beta/9", Location: "Pune, India", Type: "permanent", Source: "Adzuna"}
	other := base
	other.Location = "Remote"
	other.Type = "contract"
	other.Source = "Remotive"
	other.Region = "Other"

	assert.Equal(t, RecordIdentity(base), RecordIdentity(other))
}

func TestIdentity_CaseAndWhitespaceAreDistinct(t *testing.T) {
	assert.NotEqual(t, Identity("SRE", "Beta", "u"), Identity("sre", "Beta", "u"))
	assert.NotEqual(t, Identity("SRE", "Beta", "u"), Identity("SRE ", "Beta", "u"))
}

func TestDeduplicate_FirstOccurrenceWins(t *testing.T) {
	first := rec("Engineer", "Acme", "https://a/1")
	first.Source = "Adzuna"
	dup := rec("Engineer", "Acme", "https://a/1")
	dup.Source = "Remotive"
	dup.Location = "Remote"

	res := Deduplicate([]model.JobRecord{first, rec("Other", "Beta", "https://b/1"), dup}, nil)

	require.Len(t, res.Records, 2)
	assert.Equal(t, "Adzuna", res.Records[0].Source)
	assert.Equal(t, "Other", res.Records[1].Title)
	assert.Len(t, res.RunIDs, 2)
}

func TestDeduplicate_NewFlagAgainstHistory(t *testing.T) {
	known := rec("Old", "Acme", "https://a/old")
	fresh := rec("Fresh", "Acme", "https://a/new")
	history := map[string]struct{}{RecordIdentity(known): {}}

	res := Deduplicate([]model.JobRecord{known, fresh}, history)

	require.Len(t, res.Records, 2)
	assert.False(t, res.Records[0].IsNew)
	assert.True(t, res.Records[1].IsNew)
	require.Len(t, res.New, 1)
	assert.Equal(t, "Fresh", res.New[0].Title)
}

func TestDeduplicate_RepeatedJobFlaggedOnce(t *testing.T) {
	j := rec("Data Engineer", "Acme", "https://x/1")
	in := []model.JobRecord{j, j, j, j, j}

	res := Deduplicate(in, map[string]struct{}{})

	assert.Len(t, res.Records, 1)
	assert.Len(t, res.New, 1)
	assert.True(t, res.Records[0].IsNew)
}

func TestDeduplicate_EmptyRecordsCollide(t *testing.T) {
	res := Deduplicate([]model.JobRecord{{Source: "a"}, {Source: "b"}}, nil)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "a", res.Records[0].Source)
}

func TestDeduplicate_OutputNeverLargerThanInput(t *testing.T) {
	inputs := [][]model.JobRecord{
		nil,
		{rec("a", "b", "c")},
		{rec("a", "b", "c"), rec("a", "b", "d"), rec("a", "b", "c")},
	}
	for _, in := range inputs {
		res := Deduplicate(in, nil)
		assert.LessOrEqual(t, len(res.Records), len(in))
	}
}

func TestDeduplicate_DoesNotMutateHistory(t *testing.T) {
	history := map[string]struct{}{}
	Deduplicate([]model.JobRecord{rec("a", "b", "c")}, history)
	assert.Empty(t, history)
}

func TestMerge(t *testing.T) {
	a := map[string]struct{}{"1": {}, "2": {}}
	b := map[string]struct{}{"2": {}, "3": {}}

	m := Merge(a, b)

	assert.Len(t, m, 3)
	for _, id := range []string{"1", "2", "3"} {
		assert.Contains(t, m, id)
	}
	assert.Len(t, a, 2, "inputs must not change")
}
