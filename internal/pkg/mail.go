package pkg

import (
	"crypto/tls"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string // 发件账号
	Password string // 授权码/密码
	From     string // 显示的发件人，可与 Username 相同
}

// Mailer 通过 SMTP 批量发送通知邮件
type Mailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewMailer(cfg SMTPConfig) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return &Mailer{cfg: cfg, dialer: d}
}

// Send 一次连接逐个收件人发送，收件人之间互不可见
func (m *Mailer) Send(to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return nil
	}
	msgs := make([]*gomail.Message, 0, len(to))
	for _, addr := range to {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.cfg.From)
		msg.SetHeader("To", addr)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/html", htmlBody)
		msgs = append(msgs, msg)
	}
	return m.dialer.DialAndSend(msgs...)
}

// CheckInMailHTML 关怀/防灾通知邮件正文
func CheckInMailHTML(communityName, title, message string) string {
	body := strings.ReplaceAll(html.EscapeString(message), "\n", "<br>")
	return fmt.Sprintf(`<p>您好，</p><p>「%s」社區發佈了一則<b>%s</b>：</p><p>%s</p><p>請登入好鄰聚回覆您的狀況。</p>`,
		html.EscapeString(communityName), html.EscapeString(title), body)
}
