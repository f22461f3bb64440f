package backends

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/villaverde/sendgrid-backend/internal/email"
	ierr "github.com/villaverde/sendgrid-backend/internal/errors"
)

type payloadSettings struct {
	sandboxMode  bool
	openTracking bool
}

// PayloadOption overrides a payload-wide default.
type PayloadOption func(*payloadSettings)

// WithSandboxMode toggles mail_settings.sandbox_mode. Off by default.
func WithSandboxMode(enabled bool) PayloadOption {
	return func(s *payloadSettings) {
		s.sandboxMode = enabled
	}
}

// WithOpenTracking toggles tracking_settings.open_tracking. On by default.
func WithOpenTracking(enabled bool) PayloadOption {
	return func(s *payloadSettings) {
		s.openTracking = enabled
	}
}

// BuildMail transcodes a message into the SendGrid v3 mail-send payload.
// The transformation is pure: no I/O, and the message is left untouched.
// It fails only on a Reply-To conflict or a malformed asm directive;
// everything else passes through unchecked.
func BuildMail(msg *email.Message, opts ...PayloadOption) (*sgmail.SGMailV3, error) {
	settings := payloadSettings{openTracking: true}
	for _, opt := range opts {
		opt(&settings)
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(msg.From.Name, msg.From.Address))
	m.Subject = msg.Subject

	p := sgmail.NewPersonalization()
	if len(msg.To) > 0 {
		p.AddTos(toSGEmails(msg.To)...)
	}
	if len(msg.CC) > 0 {
		p.AddCCs(toSGEmails(msg.CC)...)
	}
	if len(msg.BCC) > 0 {
		p.AddBCCs(toSGEmails(msg.BCC)...)
	}
	p.Subject = msg.Subject
	if msg.SendAt != nil {
		p.SendAt = int(*msg.SendAt)
	}
	for k, v := range msg.TemplateData {
		p.SetDynamicTemplateData(k, v)
	}
	m.AddPersonalizations(p)

	replyTo, err := resolveReplyTo(msg)
	if err != nil {
		return nil, err
	}
	if replyTo != nil {
		m.SetReplyTo(replyTo)
	}

	if msg.Body != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.Body))
	}
	for _, alt := range msg.Alternatives {
		m.AddContent(sgmail.NewContent(alt.MIMEType, alt.Content))
	}

	for _, a := range msg.Attachments {
		m.AddAttachment(toSGAttachment(a))
	}

	if len(msg.Categories) > 0 {
		m.AddCategories(msg.Categories...)
	}
	if msg.TemplateID != "" {
		m.SetTemplateID(msg.TemplateID)
	}

	if msg.ASM != nil {
		asm, err := buildASM(msg.ASM)
		if err != nil {
			return nil, err
		}
		m.SetASM(asm)
	}

	m.MailSettings = &sgmail.MailSettings{
		SandboxMode: &sgmail.Setting{Enable: lo.ToPtr(settings.sandboxMode)},
	}
	m.TrackingSettings = &sgmail.TrackingSettings{
		OpenTracking: &sgmail.OpenTrackingSetting{Enable: lo.ToPtr(settings.openTracking)},
	}

	return m, nil
}

func toSGEmails(addrs []email.Address) []*sgmail.Email {
	return lo.Map(addrs, func(a email.Address, _ int) *sgmail.Email {
		return sgmail.NewEmail(a.Name, a.Address)
	})
}

// resolveReplyTo reconciles the reply_to property with the Reply-To
// header. When both are present they must agree on name and address.
func resolveReplyTo(msg *email.Message) (*sgmail.Email, error) {
	var prop *email.Address
	if len(msg.ReplyTo) > 0 {
		prop = &msg.ReplyTo[0]
	}

	var hdr *email.Address
	if raw, ok := msg.Header("Reply-To"); ok {
		if parsed, err := email.ParseAddress(raw); err == nil {
			hdr = &parsed
		} else {
			// unparseable header values pass through as bare addresses
			hdr = &email.Address{Address: strings.TrimSpace(raw)}
		}
	}

	switch {
	case prop != nil && hdr != nil:
		if prop.Address != hdr.Address || prop.Name != hdr.Name {
			return nil, ierr.NewError("Reply-To header and reply_to property are not the same").
				WithReportableDetails(map[string]any{
					"header":   hdr.String(),
					"property": prop.String(),
				}).
				Mark(ierr.ErrValidation)
		}
		return sgmail.NewEmail(prop.Name, prop.Address), nil
	case prop != nil:
		return sgmail.NewEmail(prop.Name, prop.Address), nil
	case hdr != nil:
		return sgmail.NewEmail(hdr.Name, hdr.Address), nil
	default:
		return nil, nil
	}
}

func toSGAttachment(a email.Attachment) *sgmail.Attachment {
	out := &sgmail.Attachment{
		Content: base64.StdEncoding.EncodeToString(a.Content),
		Type:    a.ContentType,
	}
	if a.Inline() {
		out.ContentID = strings.Trim(a.ContentID, "<>")
	} else {
		out.Filename = a.Filename
	}
	return out
}

// buildASM validates the suppression-group directive. group_id is
// required, groups_to_display is optional, any other key is dropped.
func buildASM(asm map[string]any) (*sgmail.Asm, error) {
	raw, ok := asm["group_id"]
	if !ok {
		return nil, ierr.NewError("asm.group_id is required").
			WithHint("set asm[\"group_id\"] to the unsubscribe group id").
			Mark(ierr.ErrValidation)
	}

	groupID, err := asInt(raw)
	if err != nil {
		return nil, ierr.NewErrorf("asm.group_id: %v", err).Mark(ierr.ErrValidation)
	}

	out := &sgmail.Asm{GroupID: groupID}

	if rawGroups, ok := asm["groups_to_display"]; ok {
		groups, err := asIntSlice(rawGroups)
		if err != nil {
			return nil, ierr.NewErrorf("asm.groups_to_display: %v", err).Mark(ierr.ErrValidation)
		}
		out.GroupsToDisplay = groups
	}

	return out, nil
}

// asInt accepts the integer encodings that reach us from Go callers and
// from decoded JSON.
func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float32:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func asIntSlice(v any) ([]int, error) {
	switch s := v.(type) {
	case []int:
		return s, nil
	case []any:
		out := make([]int, 0, len(s))
		for _, item := range s {
			n, err := asInt(item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported sequence type %T", v)
	}
}
