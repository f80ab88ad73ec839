package notify

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"streamdash/internal/protocol"
	"streamdash/pkg/logging"
)

// Fixed ids for one-shot notifications that replace themselves.
const (
	CopyID    = "clipboard-copy"
	ScalingID = "scaling-changed"
)

// UploadID is the notification id for a file upload.
func UploadID(fileName string) string {
	return "upload-" + fileName
}

func ptr[T any](v T) *T { return &v }

// UploadEvent applies one fileUpload lifecycle event. A start creates a
// progress item, progress updates it in place and end or error make it
// terminal and arm its expiry.
func (q *Queue) UploadEvent(p protocol.FileUploadPayload) {
	id := UploadID(p.FileName)

	switch p.Status {
	case protocol.UploadStart:
		label := "Uploading " + p.FileName
		if p.FileSize != nil && *p.FileSize > 0 {
			label = fmt.Sprintf("%s (%s)", label, humanize.IBytes(uint64(*p.FileSize)))
		}
		q.Upsert(id, Patch{Label: &label, Status: ptr(StatusProgress), Progress: ptr(0.0), Message: ptr("")})

	case protocol.UploadProgress:
		patch := Patch{Status: ptr(StatusProgress)}
		if p.Progress != nil {
			patch.Progress = p.Progress
		}
		if _, ok := q.Get(id); !ok {
			patch.Label = ptr("Uploading " + p.FileName)
		}
		q.Upsert(id, patch)

	case protocol.UploadEnd:
		q.Upsert(id, Patch{
			Label:    ptr(p.FileName),
			Status:   ptr(StatusEnd),
			Progress: ptr(100.0),
			Message:  ptr("Upload complete"),
		})
		q.ScheduleExpiry(id, UploadCompleteTimeout)

	case protocol.UploadError:
		msg := p.Message
		if msg == "" {
			msg = "Upload failed"
		}
		q.Upsert(id, Patch{Label: ptr(p.FileName), Status: ptr(StatusError), Message: &msg})
		q.ScheduleExpiry(id, ErrorTimeout)

	default:
		logging.Warn("Notify", "Ignoring upload event for %s with unknown status %q", p.FileName, p.Status)
	}
}

// CopyConfirmed shows the short-lived "copied to clipboard" item.
func (q *Queue) CopyConfirmed() {
	q.Upsert(CopyID, Patch{Label: ptr("Copied to clipboard"), Status: ptr(StatusEnd)})
	q.ScheduleExpiry(CopyID, CopyTimeout)
}

// ScalingChanged warns that a new UI scaling needs a restart.
func (q *Queue) ScalingChanged(dpi int) {
	q.Upsert(ScalingID, Patch{
		Label:   ptr("UI scaling changed"),
		Status:  ptr(StatusEnd),
		Message: ptr(fmt.Sprintf("Restart the session to apply %d DPI", dpi)),
	})
	q.ScheduleExpiry(ScalingID, ScalingTimeout)
}

// Error raises a standalone error item and returns its id.
func (q *Queue) Error(label, message string) string {
	id := "error-" + uuid.NewString()
	q.Upsert(id, Patch{Label: &label, Status: ptr(StatusError), Message: &message})
	q.ScheduleExpiry(id, ErrorTimeout)
	return id
}
