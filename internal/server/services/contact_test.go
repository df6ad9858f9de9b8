package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/sitekeeper/internal/common"
	"github.com/dmitrijs2005/sitekeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactSend(t *testing.T) {
	m := &fakeMailer{}
	svc := NewContactService(m, "owner@localhost", logging.Nop{})

	err := svc.Send(context.Background(), ContactInput{Name: "Bob", Email: "bob@example.com", Message: "Hi there"})
	require.NoError(t, err)

	msg, ok := m.last()
	require.True(t, ok)
	assert.Equal(t, []string{"owner@localhost"}, msg.To)
	assert.Equal(t, "bob@example.com", msg.ReplyTo)
	assert.Equal(t, "New contact form submission from Bob", msg.Subject)
	assert.Contains(t, msg.Body, "Message: Hi there")
}

func TestContactSend_MissingFields(t *testing.T) {
	m := &fakeMailer{}
	svc := NewContactService(m, "owner@localhost", logging.Nop{})

	for _, in := range []ContactInput{
		{Email: "bob@example.com", Message: "x"},
		{Name: "Bob", Message: "x"},
		{Name: "Bob", Email: "bob@example.com", Message: "   "},
	} {
		err := svc.Send(context.Background(), in)
		require.ErrorIs(t, err, common.ErrValidation)
		assert.Equal(t, MissingFieldsMessage, err.Error())
	}
	assert.Empty(t, m.sent)
}

func TestContactSend_DeliveryFailure(t *testing.T) {
	m := &fakeMailer{err: errBoom}
	svc := NewContactService(m, "owner@localhost", logging.Nop{})

	err := svc.Send(context.Background(), ContactInput{Name: "Bob", Email: "b@x", Message: "m"})
	assert.ErrorIs(t, err, common.ErrDeliveryFailure)
	assert.Contains(t, err.Error(), "boom")
}
