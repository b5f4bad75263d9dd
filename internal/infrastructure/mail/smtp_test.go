package mail

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"restaurantgo/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPSenderComposesMessage(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{
		Host:   "smtp.example.com",
		Port:   587,
		Sender: "noreply@example.com",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	err := s.Send(context.Background(), "Order Confirmation", "your order ABC is placed", "jane@example.com")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"jane@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Order Confirmation\r\n")
	assert.Contains(t, gotMsg, "your order ABC is placed")
}

func TestSMTPSenderWrapsFailure(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{Host: "h", Port: 25})
	boom := errors.New("connection refused")
	s.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err := s.Send(context.Background(), "s", "m", "x@example.com")
	require.ErrorIs(t, err, boom)

	err = s.Send(context.Background(), "s", "m", "")
	require.Error(t, err)
}
