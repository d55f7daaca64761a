package mailbox

import (
	"context"
	"fmt"
	"sort"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/google/uuid"
)

// IMAPTransport fetches inbound mail over IMAP. A fresh connection is
// made per call; the mailbox's message count gives a stable ordinal, so
// "latest" means the highest sequence numbers.
type IMAPTransport struct {
	host     string
	port     string
	username string
	password string
	tls      bool
}

// NewIMAPTransport creates an IMAP transport configuration.
func NewIMAPTransport(host, port, username, password string, tls bool) *IMAPTransport {
	return &IMAPTransport{
		host:     host,
		port:     port,
		username: username,
		password: password,
		tls:      tls,
	}
}

// connect dials the server, authenticates, and selects INBOX. The
// caller must Logout the returned client.
func (t *IMAPTransport) connect(_ context.Context) (*imapclient.Client, *imap.SelectData, error) {
	addr := t.host + ":" + t.port

	var client *imapclient.Client
	var err error
	if t.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(t.username, t.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, nil, fmt.Errorf("authenticating %s: %w", t.username, err)
	}

	selectData, err := client.Select("INBOX", nil).Wait()
	if err != nil {
		_ = client.Logout().Wait()
		return nil, nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	return client, selectData, nil
}

// FetchLatest returns up to max messages from the top of the mailbox,
// newest first, with their MIME bodies parsed.
func (t *IMAPTransport) FetchLatest(ctx context.Context, max int) ([]InboundMessage, error) {
	client, selectData, err := t.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	total := selectData.NumMessages
	if total == 0 || max < 1 {
		return nil, nil
	}

	// Sequence numbers count from 1; take the highest max of them.
	lo := uint32(1)
	if uint32(max) < total {
		lo = total - uint32(max) + 1
	}
	var nums []uint32
	for n := total; n >= lo; n-- {
		nums = append(nums, n)
	}
	seqSet := imap.SeqSetNum(nums...)

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(seqSet, fetchOpts)
	defer fetchCmd.Close()

	var messages []InboundMessage
	seqNums := make(map[int]uint32)
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		in := InboundMessage{Recipient: t.username}
		if buf.Envelope != nil {
			in.ExternalID = buf.Envelope.MessageID
			in.Subject = buf.Envelope.Subject
			in.Date = buf.Envelope.Date
			if len(buf.Envelope.From) > 0 {
				in.Sender = buf.Envelope.From[0].Addr()
			}
			if len(buf.Envelope.To) > 0 {
				in.Recipient = buf.Envelope.To[0].Addr()
			}
		}
		if in.ExternalID == "" {
			// No Message-ID header; synthesize one so the row is still
			// addressable. Such messages cannot dedup across runs.
			in.ExternalID = fmt.Sprintf("imap-%d-%s", buf.SeqNum, uuid.NewString())
		}

		if raw := buf.FindBodySection(bodySection); raw != nil {
			in.TextBody, in.HTMLBody = ExtractBodies(raw)
		}

		seqNums[len(messages)] = buf.SeqNum
		messages = append(messages, in)
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching messages: %w", err)
	}

	// Servers return fetch results in mailbox order; present newest first.
	idx := make([]int, len(messages))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return seqNums[idx[a]] > seqNums[idx[b]] })

	ordered := make([]InboundMessage, len(messages))
	for i, j := range idx {
		ordered[i] = messages[j]
	}
	return ordered, nil
}
