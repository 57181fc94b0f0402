package db

import (
	"passport/biz/db/mysql"
	"passport/biz/db/redis"
)

func Init() {
	mysql.Init()
	redis.Init()
}
