package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samuel/go-zookeeper/zk"

	"ktail/internal/logging"
)

const (
	DiscoveryZooKeeper = "zookeeper"
	DiscoveryStatic    = "static"

	brokerIDsPath = "/brokers/ids"
)

// zkReader is the part of *zk.Conn broker discovery uses.
type zkReader interface {
	Children(path string) ([]string, *zk.Stat, error)
	Get(path string) ([]byte, *zk.Stat, error)
}

// brokerRegistration is the JSON a broker writes under /brokers/ids/<id>.
type brokerRegistration struct {
	Host      string   `json:"host"`
	Port      int      `json:"port"`
	Endpoints []string `json:"endpoints"`
}

// ResolveBrokers turns the --zk-urls connection string into seed brokers.
// With the zookeeper mode the string is "host:port[,host:port...][/chroot]"
// and the live broker registrations are read from it; static mode takes
// the string as a comma separated broker list.
func ResolveBrokers(ctx context.Context, connect, mode string, timeout time.Duration) ([]string, error) {
	switch mode {
	case DiscoveryStatic:
		brokers := splitHosts(connect)
		if len(brokers) == 0 {
			return nil, errors.New("no brokers in connection string")
		}
		return brokers, nil
	case DiscoveryZooKeeper, "":
	default:
		return nil, fmt.Errorf("unknown discovery mode %q (want %s or %s)", mode, DiscoveryZooKeeper, DiscoveryStatic)
	}

	servers, chroot := parseZKConnect(connect)
	if len(servers) == 0 {
		return nil, errors.New("no zookeeper servers in connection string")
	}
	conn, events, err := zk.Connect(servers, timeout, zk.WithLogger(zkLogger{}))
	if err != nil {
		return nil, fmt.Errorf("zookeeper: %w", err)
	}
	defer conn.Close()

	if err := awaitSession(ctx, events, timeout); err != nil {
		return nil, fmt.Errorf("zookeeper %s: %w", strings.Join(servers, ","), err)
	}
	brokers, err := brokersFromZK(conn, chroot)
	if err != nil {
		return nil, fmt.Errorf("zookeeper: %w", err)
	}
	logging.L().Info("discovered brokers", "zookeeper", connect, "brokers", brokers)
	return brokers, nil
}

func awaitSession(ctx context.Context, events <-chan zk.Event, timeout time.Duration) error {
	t := time.NewTimer(timeout)
	defer t.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return errors.New("connection closed")
			}
			if ev.State == zk.StateHasSession {
				return nil
			}
			if ev.State == zk.StateAuthFailed {
				return zk.ErrAuthFailed
			}
		case <-t.C:
			return fmt.Errorf("no session within %s", timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func brokersFromZK(c zkReader, chroot string) ([]string, error) {
	base := path.Join("/", chroot, brokerIDsPath)
	ids, _, err := c.Children(base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", base, err)
	}
	sort.Slice(ids, func(i, j int) bool { return idLess(ids[i], ids[j]) })

	var brokers []string
	for _, id := range ids {
		raw, _, err := c.Get(path.Join(base, id))
		if err != nil {
			if errors.Is(err, zk.ErrNoNode) {
				continue // broker went away between list and get
			}
			return nil, fmt.Errorf("broker %s: %w", id, err)
		}
		addr, err := registrationAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("broker %s: %w", id, err)
		}
		brokers = append(brokers, addr)
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%s: no live brokers registered", base)
	}
	return brokers, nil
}

func registrationAddr(raw []byte) (string, error) {
	var reg brokerRegistration
	if err := json.Unmarshal(raw, &reg); err != nil {
		return "", err
	}
	if reg.Host != "" && reg.Port > 0 {
		return net.JoinHostPort(reg.Host, strconv.Itoa(reg.Port)), nil
	}
	for _, ep := range reg.Endpoints {
		// PLAINTEXT://host:9092, SASL_SSL://host:9093 ...
		if _, hp, ok := strings.Cut(ep, "://"); ok && hp != "" {
			return hp, nil
		}
	}
	return "", errors.New("registration has neither host/port nor endpoints")
}

func parseZKConnect(s string) (servers []string, chroot string) {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s, chroot = s[:i], s[i:]
	}
	return splitHosts(s), chroot
}

func splitHosts(s string) []string {
	var out []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

func idLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr != nil || berr != nil {
		return a < b
	}
	return ai < bi
}

type zkLogger struct{}

func (zkLogger) Printf(format string, args ...interface{}) {
	logging.L().Debug(fmt.Sprintf(format, args...), "component", "zookeeper")
}

type discovering struct {
	Adapter
	mode    string
	timeout time.Duration
}

// WithDiscovery resolves the subscription's connection string into seed
// brokers before every Subscribe that was not given brokers explicitly.
func WithDiscovery(a Adapter, mode string, timeout time.Duration) Adapter {
	return &discovering{Adapter: a, mode: mode, timeout: timeout}
}

func (d *discovering) Subscribe(ctx context.Context, cfg Config) (Sequence, error) {
	if len(cfg.Brokers) == 0 {
		brokers, err := ResolveBrokers(ctx, cfg.Subscription.Brokers, d.mode, d.timeout)
		if err != nil {
			return nil, err
		}
		cfg.Brokers = brokers
	}
	return d.Adapter.Subscribe(ctx, cfg)
}
