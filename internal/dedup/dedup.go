package dedup

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/amishk599/jobdigest/internal/model"
)

// Identity returns the fingerprint of a posting. Only title, company and URL
// take part; location, type, source and region never change it. The digest
// is md5 over the raw concatenation so history files written by earlier
// versions of the digest stay comparable.
func Identity(title, company, url string) string {
	sum := md5.Sum([]byte(title + company + url))
	return hex.EncodeToString(sum[:])
}

// RecordIdentity is Identity applied to a record.
func RecordIdentity(r model.JobRecord) string {
	return Identity(r.Title, r.Company, r.URL)
}

// Result is the outcome of a single dedup pass.
type Result struct {
	Records []model.JobRecord   // survivors in first-occurrence order, IsNew set
	New     []model.JobRecord   // subset of Records flagged new, same order
	RunIDs  map[string]struct{} // every identity encountered this run
}

// Deduplicate collapses records with equal identity (first occurrence wins)
// and flags a survivor new when its identity is absent from history.
// history is only read.
func Deduplicate(records []model.JobRecord, history map[string]struct{}) Result {
	res := Result{
		Records: make([]model.JobRecord, 0, len(records)),
		RunIDs:  make(map[string]struct{}, len(records)),
	}

	for _, r := range records {
		id := RecordIdentity(r)
		if _, dup := res.RunIDs[id]; dup {
			continue
		}
		res.RunIDs[id] = struct{}{}

		_, known := history[id]
		r.IsNew = !known
		res.Records = append(res.Records, r)
		if r.IsNew {
			res.New = append(res.New, r)
		}
	}

	return res
}

// Merge returns a new set holding every identity of a and b.
func Merge(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for id := range a {
		out[id] = struct{}{}
	}
	for id := range b {
		out[id] = struct{}{}
	}
	return out
}
