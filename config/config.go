package config

import (
	"github.com/gotify/configor"
)

var Conf *Configuration

type Configuration struct {
	App struct {
		ListenAddr    string `default:"" env:"APP_HOST"`
		Port          int    `default:"8080"  env:"APP_PORT"`
		BodyLimit     int64  `default:"1048576" env:"APP_BODY_LIMIT"`
		ErrNotifyAddr string `default:"" env:"APP_ERR_NOTIFY_ADDR"`
	}
	Database struct {
		Host               string `default:"127.0.0.1" env:"DB_HOST"`
		Port               string `default:"5432" env:"DB_PORT"`
		Name               string `default:"approvals" env:"DB_NAME"`
		User               string `default:"postgres" env:"DB_USER"`
		Password           string `default:"postgres" env:"DB_PASSWORD"`
		SSLMode            string `default:"disable" env:"DB_SSL_MODE"`
		MaxOpenConns       int    `default:"20" env:"DB_MAX_OPEN_CONNS"`
		MaxIdleConns       int    `default:"5" env:"DB_MAX_IDLE_CONNS"`
		ConnMaxLifetimeSec int    `default:"1800" env:"DB_CONN_MAX_LIFETIME_SEC"`
		MigrateOnStart     *bool  `default:"true" env:"DB_MIGRATE_ON_START"`
		DebugMode          *bool  `default:"false" env:"DB_DEBUG_MODE"`
	}
	Auth struct {
		JWTSecret string `default:"" env:"JWT_SECRET"`
	}
	Smtp struct {
		User        string `default:"" env:"SMTP_USER"`
		Password    string `default:"" env:"SMTP_PASSWORD"`
		Host        string `default:"" env:"SMTP_HOST"`
		Port        string `default:"" env:"SMTP_PORT"`
		TLSEnabled  *bool  `default:"true" env:"SMTP_TLS_ENABLED"`
		SenderEmail string `default:"" env:"SMTP_SENDER_EMAIL"`
	}
	Approval struct {
		NotifyByEmail          *bool `default:"true" env:"APPROVAL_NOTIFY_BY_EMAIL"`
		OverdueReminderEnabled *bool `default:"true" env:"APPROVAL_OVERDUE_REMINDER_ENABLED"`
		OverdueFirstRunSec     int   `default:"60" env:"APPROVAL_OVERDUE_FIRST_RUN_SEC"`
		OverdueIntervalSec     int   `default:"3600" env:"APPROVAL_OVERDUE_INTERVAL_SEC"`
	}
}

func configFiles() []string {
	return []string{"config.yml"}
}

func InitConfig() {
	if Conf != nil {
		return
	}
	conf := new(Configuration)
	err := configor.New(&configor.Config{}).Load(conf, configFiles()...)
	if err != nil {
		panic(err)
	}
	Conf = conf
}
