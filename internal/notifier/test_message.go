package notifier

import (
	"context"
	"time"

	"github.com/amishk599/jobdigest/internal/digest"
	"github.com/amishk599/jobdigest/internal/model"
)

// SendTestMessage sends a one-record sample digest to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	sample := []model.JobRecord{{
		Title:    "Test Notification (integration verified)",
		Company:  "jobdigest",
		Location: "Everywhere",
		URL:      "https://remotive.com/remote-jobs",
		Source:   "test",
	}}
	d, err := digest.NewEmitter(digest.DefaultPreviewLimit).Format(len(sample), sample, time.Now())
	if err != nil {
		return err
	}
	return n.Notify(ctx, d)
}
