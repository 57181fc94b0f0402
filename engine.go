package passport

import (
	"passport/biz/config"
	"passport/biz/util/validate"

	"github.com/cloudwego/hertz/pkg/app/server"
)

const defaultHostPorts = ":8888"

// NewEngine builds the server with its middleware and routes. Config, logger
// and stores must be initialised before.
func NewEngine() *server.Hertz {
	hostPorts := config.GetServerConf().HostPorts
	if hostPorts == "" {
		hostPorts = defaultHostPorts
	}

	h := server.New(
		server.WithHostPorts(hostPorts),
		server.WithCustomValidatorFunc(validate.Request),
	)
	register(h)
	return h
}
