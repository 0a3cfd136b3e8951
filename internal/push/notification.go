package push

import "encoding/json"

// Notification is the JSON document the service worker renders.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

func (n Notification) Marshal() ([]byte, error) {
	return json.Marshal(n)
}
