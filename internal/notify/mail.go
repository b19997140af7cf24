package notify

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/wneessen/go-mail"
)

// defaultMailTimeout bounds a send whose context carries no deadline.
const defaultMailTimeout = 15 * time.Second

// MailSender e-mails events to the configured admin addresses.
//
// Go Learning Note — Context-Aware Network Clients:
// The connection's deadline is taken from the send context, so a server that
// accepts the connection and then never answers fails the read when the
// context expires instead of parking the goroutine forever.
type MailSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
}

func NewMailSender(host string, port int, username, password, from string, to []string) *MailSender {
	return &MailSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
	}
}

func (s *MailSender) Name() string { return "mail" }

func (s *MailSender) Send(ctx context.Context, event Event) error {
	if len(s.to) == 0 {
		return nil
	}
	msg, err := newMailMessage(s.from, s.to, event, time.Now())
	if err != nil {
		return err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultMailTimeout)
	}
	timeout := time.Until(deadline)
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(timeout),
		mail.WithDialContextFunc(func(dialCtx context.Context, network, addr string) (net.Conn, error) {
			var d net.Dialer
			conn, err := d.DialContext(dialCtx, network, addr)
			if err != nil {
				return nil, err
			}
			if err := conn.SetDeadline(deadline); err != nil {
				conn.Close()
				return nil, err
			}
			return conn, nil
		}),
	}
	if s.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.username),
			mail.WithPassword(s.password),
		)
	}

	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("create mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// newMailMessage renders the event as a plain-text message. Headers are
// encoded by go-mail, so non-ASCII subjects survive.
func newMailMessage(from string, to []string, event Event, at time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(event.Subject())
	msg.SetDateWithValue(at)
	msg.SetBodyString(mail.TypeTextPlain, event.Text())
	return msg, nil
}
