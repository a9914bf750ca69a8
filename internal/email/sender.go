package email

import (
	"context"
	"errors"
)

// Message es un correo listo para enviar.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Receipt resume la respuesta del servidor al aceptar un mensaje.
type Receipt struct {
	Response   string
	MessageID  string
	PreviewURL string
}

// Sender define la interfaz de los transportes de correo.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) Send(_ context.Context, _ Message) (Receipt, error) {
	if s.reason == "" {
		return Receipt{}, errors.New("email sender disabled")
	}
	return Receipt{}, errors.New(s.reason)
}
