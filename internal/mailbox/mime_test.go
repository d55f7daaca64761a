package mailbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mailroom/backend/internal/mailbox"
)

func TestExtractBodies_Multipart(t *testing.T) {
	raw := "From: buyer@example.com\r\n" +
		"To: sales@example.com\r\n" +
		"Subject: Order inquiry\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=BOUNDARY\r\n" +
		"\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Please quote 100 units.\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>Please quote 100 units.</p>\r\n" +
		"--BOUNDARY--\r\n"

	text, html := mailbox.ExtractBodies([]byte(raw))

	assert.Contains(t, text, "Please quote 100 units.")
	assert.Contains(t, html, "<p>Please quote 100 units.</p>")
}

func TestExtractBodies_PlainOnly(t *testing.T) {
	raw := "From: buyer@example.com\r\n" +
		"To: sales@example.com\r\n" +
		"Subject: hello\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Just a plain message.\r\n"

	text, html := mailbox.ExtractBodies([]byte(raw))

	assert.Contains(t, text, "Just a plain message.")
	assert.Empty(t, html)
}

func TestExtractBodies_Unparseable(t *testing.T) {
	// Garbage input must still produce a usable plain-text body.
	raw := []byte("not an rfc2822 message at all")

	text, html := mailbox.ExtractBodies(raw)

	assert.Equal(t, string(raw), text)
	assert.Empty(t, html)
}
