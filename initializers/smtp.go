package initializers

import (
	"approvals-backend/config"
	"approvals-backend/lib/smtp"
)

func InitSmtp() {
	smtpConf := config.Conf.Smtp
	err := smtp.Connect(smtp.Options{
		User:       smtpConf.User,
		Password:   smtpConf.Password,
		Host:       smtpConf.Host,
		Port:       smtpConf.Port,
		TLSEnabled: *smtpConf.TLSEnabled,
	})
	if err != nil {
		panic(err.Error())
	}
}
