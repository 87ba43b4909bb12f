package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubSendMail(t *testing.T, fn func(addr string, a smtp.Auth, from string, to []string, msg []byte) error) {
	t.Helper()
	orig := sendMail
	sendMail = fn
	t.Cleanup(func() { sendMail = orig })
}

func TestEmailChannel_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	stubSendMail(t, func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	})

	ch := NewEmailChannel(EmailConfig{Host: "smtp.example.com", Port: 587, User: "u", Password: "p", From: "no-reply@example.com", FromName: "Portal"})
	err := ch.Send(context.Background(), testAccount(), Message{Subject: "Hola", Body: "cuerpo"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "no-reply@example.com", gotFrom)
	assert.Equal(t, []string{"ana@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "To: ana@example.com\r\n")
	assert.Contains(t, string(gotMsg), "From: Portal <no-reply@example.com>\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\ncuerpo")
}

func TestEmailChannel_Errors(t *testing.T) {
	ch := NewEmailChannel(EmailConfig{Host: "h", Port: 25, From: "f@example.com"})

	acct := testAccount()
	acct.Email = ""
	assert.False(t, ch.Accepts(acct))
	assert.ErrorIs(t, ch.Send(context.Background(), acct, Message{}), ErrNoAddress)

	stubSendMail(t, func(string, smtp.Auth, string, []string, []byte) error { return errors.New("550 rejected") })
	err := ch.Send(context.Background(), testAccount(), Message{})
	assert.ErrorContains(t, err, "550 rejected")
}

func TestEmailChannel_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	stubSendMail(t, func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := NewEmailChannel(EmailConfig{Host: "h", Port: 25}).Send(ctx, testAccount(), Message{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
