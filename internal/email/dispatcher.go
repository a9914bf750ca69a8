package email

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Delivery es el resultado de un envio visto por el flujo de alta.
// Nunca se propaga un error: un fallo de transporte se reporta con OK=false.
type Delivery struct {
	OK         bool
	Sandbox    bool
	PreviewURL string
}

// Dispatcher envia los correos de verificacion con un limite de tiempo.
type Dispatcher struct {
	sender  Sender
	sandbox bool
	timeout time.Duration
	logger  *zap.Logger
}

func NewDispatcher(sender Sender, sandbox bool, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if sender == nil {
		sender = NewDisabledSender("")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{sender: sender, sandbox: sandbox, timeout: timeout, logger: logger}
}

func (d *Dispatcher) SendVerification(ctx context.Context, to, verifyURL string) Delivery {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	receipt, err := d.sender.Send(ctx, VerificationMessage(to, verifyURL))
	if err != nil {
		d.logger.Warn("verification email not sent", zap.String("to", to), zap.Error(err))
		return Delivery{Sandbox: d.sandbox}
	}
	if receipt.PreviewURL != "" {
		d.logger.Info("verification email preview", zap.String("to", to), zap.String("preview_url", receipt.PreviewURL))
	}
	return Delivery{OK: true, Sandbox: d.sandbox, PreviewURL: receipt.PreviewURL}
}
