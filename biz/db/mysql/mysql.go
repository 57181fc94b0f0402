package mysql

import (
	"fmt"

	"passport/biz/config"
	"passport/biz/model/storage"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbConn *gorm.DB

func Init() {
	conf := config.GetMySQLConf()
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.Username, conf.Password, conf.IP, conf.Port, conf.DBName)

	InitWithDialector(mysql.Open(dsn))
}

// InitWithDialector opens the global connection on any gorm dialector and
// migrates the login tables. Tests pass an in-memory sqlite dialector.
func InitWithDialector(dialector gorm.Dialector) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		panic(err)
	}

	if err := db.AutoMigrate(&storage.LoginRecord{}); err != nil {
		panic(err)
	}

	hlog.Infof("mysql connection ready, dialect: %s", dialector.Name())
	dbConn = db
}

func GetDbConn() *gorm.DB {
	return dbConn
}
