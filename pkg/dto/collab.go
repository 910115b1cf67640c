package dto

// CollabMessage is an inbound realtime event. NewCode is the older name for
// NewContent.
type CollabMessage struct {
	Event      string `json:"event"`
	Slug       string `json:"slug"`
	NewContent string `json:"newContent,omitempty"`
	NewCode    string `json:"newCode,omitempty"`
}

func (m *CollabMessage) Content() string {
	if m.NewContent != "" {
		return m.NewContent
	}
	return m.NewCode
}
