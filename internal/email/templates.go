package email

import (
	"fmt"
	"html"
)

const verificationSubject = "Verify your Move It account"

// VerificationMessage arma el correo con el enlace de verificacion.
func VerificationMessage(to, verifyURL string) Message {
	text := fmt.Sprintf(
		"Thanks for signing up for Move It!\n\nPlease verify your email by opening this link:\n%s\n\nIf you did not create an account you can ignore this message.\n",
		verifyURL,
	)
	link := html.EscapeString(verifyURL)
	body := fmt.Sprintf(
		`<p>Thanks for signing up for Move It!</p><p>Please verify your email by clicking <a href="%s">this link</a>.</p><p>If the link does not work, copy this address into your browser:<br>%s</p>`,
		link, link,
	)
	return Message{
		To:      to,
		Subject: verificationSubject,
		Text:    text,
		HTML:    body,
	}
}
