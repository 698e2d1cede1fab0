package record

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Message field names. The timestamp is the record's createdAt.
const (
	MessageContent        = "content"
	MessageSenderID       = "senderId"
	MessageSenderName     = "senderName"
	MessageAttachmentURL  = "attachmentUrl"
	MessageAttachmentName = "attachmentName"
	MessageAttachmentType = "attachmentType"
	MessageAttachmentSize = "attachmentSize"
)

// ErrInvalidMessage is returned by Message.Validate.
var ErrInvalidMessage = errors.New("invalid message")

// Attachment points at a file stored elsewhere.
type Attachment struct {
	URL  string `json:"url"            yaml:"url"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	Size int64  `json:"size,omitempty" yaml:"size,omitempty"`
}

// IsImage reports whether the attachment has an image MIME type.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.Type, "image/")
}

// Message is one post in the team chat.
type Message struct {
	ID         string      `json:"id"                   yaml:"id,omitempty"`
	Content    string      `json:"content"              yaml:"content"`
	SenderID   string      `json:"senderId"             yaml:"sender_id"`
	SenderName string      `json:"senderName,omitempty" yaml:"sender_name,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty" yaml:"attachment,omitempty"`
	Timestamp  time.Time   `json:"timestamp,omitzero"   yaml:"timestamp,omitempty"`
}

// RecordID implements Keyed.
func (m Message) RecordID() string {
	return m.ID
}

// Validate requires a sender and either content or an attachment.
func (m Message) Validate() error {
	if m.SenderID == "" {
		return fmt.Errorf("%w: sender is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Content) == "" && m.Attachment == nil {
		return fmt.Errorf("%w: content or an attachment is required", ErrInvalidMessage)
	}
	if m.Attachment != nil {
		if m.Attachment.URL == "" {
			return fmt.Errorf("%w: attachment url is required", ErrInvalidMessage)
		}
		if m.Attachment.Size < 0 {
			return fmt.Errorf("%w: attachment size must not be negative", ErrInvalidMessage)
		}
	}
	return nil
}

// ToRecord converts the message into a store document.
func (m Message) ToRecord() Record {
	r := Record{
		MessageContent:  m.Content,
		MessageSenderID: m.SenderID,
	}
	if m.ID != "" {
		r[FieldID] = m.ID
	}
	putString(r, MessageSenderName, m.SenderName)
	putTime(r, FieldCreatedAt, m.Timestamp)
	if a := m.Attachment; a != nil {
		r[MessageAttachmentURL] = a.URL
		putString(r, MessageAttachmentName, a.Name)
		putString(r, MessageAttachmentType, a.Type)
		if a.Size > 0 {
			r[MessageAttachmentSize] = float64(a.Size)
		}
	}
	return r
}

// MessageFromRecord builds a Message from a store document.
func MessageFromRecord(r Record) Message {
	m := Message{ID: r.ID()}
	m.Content, _ = r.String(MessageContent)
	m.SenderID, _ = r.String(MessageSenderID)
	m.SenderName, _ = r.String(MessageSenderName)
	m.Timestamp, _ = r.CreatedAt()
	if url, ok := r.String(MessageAttachmentURL); ok && url != "" {
		a := &Attachment{URL: url}
		a.Name, _ = r.String(MessageAttachmentName)
		a.Type, _ = r.String(MessageAttachmentType)
		if size, ok := r.Float(MessageAttachmentSize); ok {
			a.Size = int64(size)
		}
		m.Attachment = a
	}
	return m
}
