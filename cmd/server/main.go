package main

import (
	"flag"

	"passport"
	"passport/biz/config"
	"passport/biz/db"
	"passport/biz/util/logger"
)

func main() {
	confPath := flag.String("conf", "./conf/deploy.yml", "config file path")
	flag.Parse()

	config.Init(*confPath)
	logger.Init()
	db.Init()

	passport.NewEngine().Spin()
}
