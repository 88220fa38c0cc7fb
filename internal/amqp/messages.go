package amqp

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ImportRequestMessage asks a worker to import source into a profile.
type ImportRequestMessage struct {
	ProfileID string    `json:"profileId"`
	Source    string    `json:"source"`
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewImportRequestMessage(profileID, source, requestID string) *ImportRequestMessage {
	return &ImportRequestMessage{
		ProfileID: profileID,
		Source:    source,
		RequestID: requestID,
		Timestamp: time.Now(),
	}
}

func (m *ImportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportRequestMessageFromJSON decodes and checks a request. Both the profile
// and the source are required.
func ImportRequestMessageFromJSON(data []byte) (*ImportRequestMessage, error) {
	var msg ImportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.ProfileID) == "" || strings.TrimSpace(msg.Source) == "" {
		return nil, errors.New("import request needs profileId and source")
	}
	return &msg, nil
}

// ProfileUpdatedMessage announces that a profile's stored text changed.
type ProfileUpdatedMessage struct {
	ProfileID string    `json:"profileId"`
	Source    string    `json:"source,omitempty"`
	Mode      string    `json:"mode"`
	Added     int       `json:"added"`
	Timestamp time.Time `json:"timestamp"`
}

func NewProfileUpdatedMessage(profileID, source, mode string, added int) *ProfileUpdatedMessage {
	return &ProfileUpdatedMessage{
		ProfileID: profileID,
		Source:    source,
		Mode:      mode,
		Added:     added,
		Timestamp: time.Now(),
	}
}

func (m *ProfileUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ProfileUpdatedMessageFromJSON(data []byte) (*ProfileUpdatedMessage, error) {
	var msg ProfileUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
