package mailbox

import (
	"bytes"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"
)

// ExtractBodies parses a raw RFC 2822 message and returns its plain
// text and HTML bodies. The first text/plain part of a multipart
// message wins; when nothing parses, the raw payload is treated as
// plain text so ingestion never loses the message.
func ExtractBodies(raw []byte) (textBody, htmlBody string) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw), ""
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue // attachments are out of scope
		}

		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			if textBody == "" {
				textBody = string(body)
			}
		case strings.HasPrefix(contentType, "text/html"):
			if htmlBody == "" {
				htmlBody = string(body)
			}
		}
	}

	return textBody, htmlBody
}
