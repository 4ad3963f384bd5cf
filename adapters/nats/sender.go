package nats

import (
	"context"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/codewandler/redispatch-go/core/dispatch"
	"github.com/codewandler/redispatch-go/internal/codec"
)

const (
	HeaderCommandType = "Redispatch-Command-Type"
	HeaderProcessID   = "Redispatch-Process-Id"
	HeaderEventID     = "Redispatch-Event-Id"
)

type SenderConfig struct {
	Connect Connector
	// Stream is the JetStream stream receiving commands (default
	// "PROCESS_COMMANDS").
	Stream string
	// Subject commands are published to (default "process.commands").
	Subject string
	// Dedup is the server-side duplicate tracking window (default 2m).
	Dedup time.Duration
}

// Sender publishes process commands to a JetStream stream. The message
// id is the command's deterministically derived id, so the server
// drops re-dispatched duplicates inside the dedup window and consumers
// can dedup on it beyond that.
type Sender struct {
	js      jetstream.JetStream
	subject string
	codec   codec.Codec
}

func NewSender(cfg SenderConfig) (*Sender, error) {
	doConnect := cfg.Connect
	if doConnect == nil {
		doConnect = ConnectDefault()
	}
	stream := cfg.Stream
	if stream == "" {
		stream = "PROCESS_COMMANDS"
	}
	subject := cfg.Subject
	if subject == "" {
		subject = "process.commands"
	}
	dedup := cfg.Dedup
	if dedup == 0 {
		dedup = 2 * time.Minute
	}

	nc, _, err := doConnect()
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}

	_, err = js.CreateOrUpdateStream(context.Background(), jetstream.StreamConfig{
		Name:       stream,
		Subjects:   []string{subject},
		Storage:    jetstream.FileStorage,
		Duplicates: dedup,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure command stream: %w", err)
	}

	return &Sender{
		js:      js,
		subject: subject,
		codec:   codec.JSONCodec{},
	}, nil
}

func (s *Sender) Send(ctx context.Context, cmd dispatch.ProcessCommand) error {
	data, err := s.codec.Marshal(cmd)
	if err != nil {
		return err
	}

	msg := &natsgo.Msg{
		Subject: s.subject,
		Data:    data,
		Header: natsgo.Header{
			natsgo.MsgIdHdr:   []string{cmd.ID},
			HeaderCommandType: []string{cmd.Type},
			HeaderProcessID:   []string{cmd.ProcessID},
			HeaderEventID:     []string{cmd.EventID},
		},
	}

	if _, err := s.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish command %s: %w", cmd.ID, err)
	}
	return nil
}

var _ dispatch.CommandSender = (*Sender)(nil)
