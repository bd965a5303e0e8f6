package models

// Notice is a dismissible message shown above a page.
type Notice struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func SuccessNotice(text string) *Notice {
	return &Notice{Type: NoticeSuccess, Text: text}
}

func ErrorNotice(text string) *Notice {
	return &Notice{Type: NoticeError, Text: text}
}

// ValidationErrors maps a field name to its messages, as returned by the
// backend with HTTP 422.
type ValidationErrors map[string][]string

// First returns the first message for field, or "".
func (v ValidationErrors) First(field string) string {
	if msgs := v[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Has reports whether field has at least one message.
func (v ValidationErrors) Has(field string) bool {
	return len(v[field]) > 0
}
