package smtp

import (
	"fmt"
	"mime"
	"net"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	log "github.com/sirupsen/logrus"
)

const subjectPrefix = "Согласование документов"

var Instance Provider

type Provider interface {
	SendEMail(from, to, message, subject string) error
}

type Options struct {
	User       string
	Password   string
	Host       string
	Port       string
	TLSEnabled bool
}

func (o Options) configured() bool {
	return o.User != "" && o.Host != "" && o.Port != ""
}

func Connect(opts Options) error {
	Instance = &impl{opts: opts}
	return nil
}

type impl struct {
	opts Options
}

func (i impl) SendEMail(from, to, message, subject string) (err error) {
	logger := log.
		WithField("sender", from).
		WithField("recipient", to)
	if !i.opts.configured() {
		logger.Warn("Письмо не отправлено, тк не настроен smtp клиент")
		return nil
	}
	if from == "" {
		from = i.opts.User
	}
	addr := net.JoinHostPort(i.opts.Host, i.opts.Port)
	auth := sasl.NewPlainClient("", i.opts.User, i.opts.Password)
	body := strings.NewReader(buildMessage(from, to, subject, message))
	if i.opts.TLSEnabled {
		err = smtp.SendMailTLS(addr, auth, i.opts.User, []string{to}, body)
	} else {
		err = smtp.SendMail(addr, auth, i.opts.User, []string{to}, body)
	}
	if err != nil {
		logger.WithError(err).Error("Ошибка отправки сообщения")
		return err
	}
	logger.Info("письмо отправлено")
	return nil
}

// buildMessage renders a plain text message; the subject is RFC 2047 encoded when it is not ASCII.
func buildMessage(from, to, subject, message string) string {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.BEncoding.Encode("UTF-8", fmt.Sprintf("%s - %s", subjectPrefix, subject)),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + message + "\r\n"
}
