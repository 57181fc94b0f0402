package id_gen

import (
	"encoding/hex"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/gopkg/lang/fastrand"
)

func init() {
	idgen = NewIDGenerator(10)
}

// NewID returns a user id: [a-z0-9] only, ordered roughly by creation time.
func NewID() string {
	return idgen.NewID()
}

var idgen *IDGenerator

type IDGenerator struct {
	pool <-chan string
	stop chan any
}

func NewIDGenerator(maxSize int) *IDGenerator {
	stop := make(chan any)
	return &IDGenerator{
		pool: newPool(maxSize, stop),
		stop: stop,
	}
}

func (idgen *IDGenerator) Stop() {
	select {
	case <-idgen.stop:
	default:
		close(idgen.stop)
	}
}

func (idgen *IDGenerator) NewID() string {
	return <-idgen.pool
}

func newPool(size int, stop chan any) <-chan string {
	pool := make(chan string, size)
	host := hostHex() + strconv.FormatUint(uint64(os.Getpid()), 36)

	go func() {
		for {
			sb := strings.Builder{}
			sb.WriteString(strconv.FormatUint(uint64(time.Now().UnixMilli()), 36))
			sb.WriteString(host)
			sb.WriteString(strconv.FormatUint(fastrand.Uint64(), 36))

			select {
			case <-stop:
				return
			case pool <- sb.String():
			}
		}
	}()

	return pool
}

// hostHex is the first non-loopback IPv4 address in hex, or zeros when the
// host has none.
func hostHex() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "00000000"
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() {
			if v4 := ipNet.IP.To4(); v4 != nil {
				return hex.EncodeToString(v4)
			}
		}
	}
	return "00000000"
}
