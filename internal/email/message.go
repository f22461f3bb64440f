package email

import (
	"net/textproto"
	"sort"
)

// Message is a provider-independent outgoing email. Recipient order is
// preserved all the way into the provider payload.
type Message struct {
	Subject      string            `json:"subject,omitempty"`
	Body         string            `json:"body,omitempty"`
	From         Address           `json:"from"`
	To           []Address         `json:"to,omitempty"`
	CC           []Address         `json:"cc,omitempty"`
	BCC          []Address         `json:"bcc,omitempty"`
	ReplyTo      []Address         `json:"reply_to,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Alternatives []Alternative     `json:"alternatives,omitempty"`
	Attachments  []Attachment      `json:"attachments,omitempty"`

	// Provider extension attributes, all optional.
	SendAt       *int64         `json:"send_at,omitempty"`
	Categories   []string       `json:"categories,omitempty"`
	TemplateID   string         `json:"template_id,omitempty"`
	TemplateData map[string]any `json:"template_data,omitempty"`
	ASM          map[string]any `json:"asm,omitempty"`
}

// Alternative is an additional MIME rendering of the body, e.g. HTML.
type Alternative struct {
	Content  string `json:"content"`
	MIMEType string `json:"mime_type"`
}

// Header returns the value of the named header. Lookup is
// case-insensitive via MIME canonical form; when the map holds several
// spellings of the same header the lexicographically smallest key wins.
func (m *Message) Header(name string) (string, bool) {
	if len(m.Headers) == 0 {
		return "", false
	}
	if v, ok := m.Headers[name]; ok {
		return v, true
	}

	want := textproto.CanonicalMIMEHeaderKey(name)
	keys := make([]string, 0, len(m.Headers))
	for k := range m.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if textproto.CanonicalMIMEHeaderKey(k) == want {
			return m.Headers[k], true
		}
	}
	return "", false
}

// AddAlternative appends an additional rendering of the body.
func (m *Message) AddAlternative(content, mimeType string) {
	m.Alternatives = append(m.Alternatives, Alternative{Content: content, MIMEType: mimeType})
}

// Attach appends a regular file attachment.
func (m *Message) Attach(filename string, content []byte, contentType string) {
	m.Attachments = append(m.Attachments, NewAttachment(filename, content, contentType))
}

// AttachInline appends an inline part referenced from the HTML body.
func (m *Message) AttachInline(content []byte, contentType, contentID string) {
	m.Attachments = append(m.Attachments, NewInlineAttachment(content, contentType, contentID))
}

// Recipients returns to, cc and bcc flattened in that order.
func (m *Message) Recipients() []Address {
	out := make([]Address, 0, len(m.To)+len(m.CC)+len(m.BCC))
	out = append(out, m.To...)
	out = append(out, m.CC...)
	out = append(out, m.BCC...)
	return out
}
