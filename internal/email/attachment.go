package email

// AttachmentKind discriminates the two attachment variants.
type AttachmentKind string

const (
	// AttachmentKindFile is a regular file attachment.
	AttachmentKindFile AttachmentKind = "attachment"
	// AttachmentKindInline is a part referenced from an HTML body through
	// a cid: URI, identified by its Content-ID label.
	AttachmentKindInline AttachmentKind = "inline"
)

// Attachment is one attachment entry of a message. An empty Kind is
// treated as a regular file attachment.
type Attachment struct {
	Kind        AttachmentKind `json:"kind,omitempty"`
	Filename    string         `json:"filename,omitempty"`
	Content     []byte         `json:"content,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
	// ContentID carries the Content-ID header value of an inline part,
	// with or without the surrounding angle brackets.
	ContentID string `json:"content_id,omitempty"`
}

// NewAttachment builds a regular file attachment from raw bytes.
func NewAttachment(filename string, content []byte, contentType string) Attachment {
	return Attachment{
		Kind:        AttachmentKindFile,
		Filename:    filename,
		Content:     content,
		ContentType: contentType,
	}
}

// NewInlineAttachment builds an inline part carrying a Content-ID label.
func NewInlineAttachment(content []byte, contentType, contentID string) Attachment {
	return Attachment{
		Kind:        AttachmentKindInline,
		Content:     content,
		ContentType: contentType,
		ContentID:   contentID,
	}
}

// Inline reports whether the attachment is an inline part.
func (a Attachment) Inline() bool {
	return a.Kind == AttachmentKindInline
}
