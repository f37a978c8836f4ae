package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExportJobMessage asks the worker to export one user's transactions. The
// worker loads the data itself, so the message stays small.
type ExportJobMessage struct {
	JobID       string    `json:"job_id"`
	UserID      string    `json:"user_id"`
	Format      string    `json:"format"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewExportJobMessage(userID, format string) *ExportJobMessage {
	return &ExportJobMessage{
		JobID:       uuid.NewString(),
		UserID:      userID,
		Format:      format,
		RequestedAt: time.Now(),
	}
}

func (m *ExportJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportJobMessageFromJSON(data []byte) (*ExportJobMessage, error) {
	var msg ExportJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
