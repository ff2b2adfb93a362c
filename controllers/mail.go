package controllers

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"Gin_postgres_redis_library_dashboard/app"
)

// Mailer 发送邀请邮件
type Mailer interface {
	SendInvite(toEmail, role, link string, expiresDays int) error
}

type smtpMailer struct{ conf app.SMTPConfig }

func NewSMTPMailer(conf app.SMTPConfig) Mailer { return &smtpMailer{conf: conf} }

func (m *smtpMailer) SendInvite(toEmail, role, link string, expiresDays int) error {
	conf := m.conf

	// 未配置 SMTP → 开发模式：打印即可，不报错
	if conf.Host == "" || (conf.Username == "" && conf.From == "") {
		log.Printf("[DEV] Invite link for %s (%s): %s (expires in %d day(s))", toEmail, role, link, expiresDays)
		return nil
	}

	fromAddr := conf.From
	if fromAddr == "" {
		fromAddr = conf.Username
	}

	subject := fmt.Sprintf("%s Invitation", conf.AppName)
	htmlBody := fmt.Sprintf(`
<div style="font-family:Arial,sans-serif; font-size:14px; color:#222">
  <p>Hello,</p>
  <p>You have been invited to join <b>%s</b> as <b>%s</b>. Click the button below to set your password and sign in:</p>
  <p>
    <a href="%s" style="display:inline-block; padding:10px 16px; background:#2563EB; color:#fff; text-decoration:none; border-radius:6px;">
      Accept Invitation
    </a>
  </p>
  <p>Or open this link directly:</p>
  <p><a href="%s">%s</a></p>
  <p>This invitation will expire in %d day(s).</p>
</div>
`, conf.AppName, role, link, link, link, expiresDays)

	msg := buildMIMEWithFromName(conf.AppName, fromAddr, toEmail, subject, htmlBody)

	auth := smtp.PlainAuth("", conf.Username, conf.Password, conf.Host)
	return smtp.SendMail(conf.Host+":"+conf.Port, auth, fromAddr, []string{toEmail}, []byte(msg))
}

func buildMIMEWithFromName(fromName, fromAddr, to, subject, html string) string {
	headers := []string{
		fmt.Sprintf("From: %s <%s>", fromName, fromAddr),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + html
}
