package redis

import (
	"context"
	"fmt"
	"time"

	"passport/biz/config"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func Init() {
	conf := config.GetRedisConf()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", conf.IP, conf.Port),
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		panic(err)
	}

	hlog.Infof("redis connection ready, addr: %s", client.Options().Addr)
	redisClient = client
}

func GetRedisClient() *redis.Client {
	return redisClient
}
