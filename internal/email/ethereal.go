package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	DefaultSandboxAPI = "https://api.nodemailer.com/user"
	defaultSandboxWeb = "https://ethereal.email"
)

// sandboxAccount es la respuesta del API de cuentas de prueba de Ethereal.
type sandboxAccount struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	User   string `json:"user"`
	Pass   string `json:"pass"`
	SMTP   struct {
		Host   string `json:"host"`
		Port   int    `json:"port"`
		Secure bool   `json:"secure"`
	} `json:"smtp"`
	Web string `json:"web"`
}

// EtherealSender entrega el correo a un buzon de prueba de Ethereal. Los
// mensajes nunca llegan al destinatario; cada envio devuelve una URL de
// vista previa. La cuenta se crea en el primer envio y se reutiliza.
type EtherealSender struct {
	apiURL     string
	httpClient *http.Client
	from       string
	fromName   string
	logger     *zap.Logger

	mu     sync.Mutex
	sender *SMTPSender
	web    string
}

func NewEtherealSender(apiURL, from, fromName string, httpClient *http.Client, logger *zap.Logger) *EtherealSender {
	if apiURL == "" {
		apiURL = DefaultSandboxAPI
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EtherealSender{
		apiURL:     apiURL,
		httpClient: httpClient,
		from:       from,
		fromName:   fromName,
		logger:     logger,
	}
}

func (s *EtherealSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	sender, web, err := s.transport(ctx)
	if err != nil {
		return Receipt{}, err
	}
	receipt, err := sender.Send(ctx, msg)
	if err != nil {
		return Receipt{}, err
	}
	if receipt.MessageID != "" {
		receipt.PreviewURL = web + "/message/" + receipt.MessageID
	}
	return receipt, nil
}

func (s *EtherealSender) transport(ctx context.Context) (*SMTPSender, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sender != nil {
		return s.sender, s.web, nil
	}

	account, err := s.createAccount(ctx)
	if err != nil {
		return nil, "", err
	}
	from := s.from
	if from == "" {
		from = account.User
	}
	sender, err := NewSMTPSender(account.SMTP.Host, account.SMTP.Port, account.User, account.Pass, from, s.fromName, account.SMTP.Secure)
	if err != nil {
		return nil, "", err
	}
	web := strings.TrimRight(account.Web, "/")
	if web == "" {
		web = defaultSandboxWeb
	}
	s.sender, s.web = sender, web
	s.logger.Info("ethereal test account ready", zap.String("user", account.User), zap.String("host", account.SMTP.Host))
	return sender, web, nil
}

func (s *EtherealSender) createAccount(ctx context.Context) (sandboxAccount, error) {
	payload, err := json.Marshal(map[string]string{
		"requestor": "moveit-auth",
		"version":   "1.0.0",
	})
	if err != nil {
		return sandboxAccount{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return sandboxAccount{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return sandboxAccount{}, fmt.Errorf("create test account: %w", err)
	}
	defer resp.Body.Close()

	var account sandboxAccount
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return sandboxAccount{}, fmt.Errorf("decode test account: %w", err)
	}
	if resp.StatusCode != http.StatusOK || account.Status != "success" {
		return sandboxAccount{}, fmt.Errorf("create test account: status %d %s", resp.StatusCode, account.Error)
	}
	return account, nil
}
