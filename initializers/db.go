package initializers

import (
	"approvals-backend/config"
	"approvals-backend/db"
	"time"
)

func InitDBConnection() {
	dbConf := config.Conf.Database
	err := db.Connect(db.ConnectOptions{
		Host:            dbConf.Host,
		Port:            dbConf.Port,
		Name:            dbConf.Name,
		User:            dbConf.User,
		Password:        dbConf.Password,
		SSLMode:         dbConf.SSLMode,
		MaxOpenConns:    dbConf.MaxOpenConns,
		MaxIdleConns:    dbConf.MaxIdleConns,
		ConnMaxLifetime: time.Duration(dbConf.ConnMaxLifetimeSec) * time.Second,
		DebugMode:       *dbConf.DebugMode,
		Migrate:         *dbConf.MigrateOnStart,
	})
	if err != nil {
		panic(err.Error())
	}
}
