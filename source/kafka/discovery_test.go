package kafka

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/samuel/go-zookeeper/zk"
)

type fakeZK struct {
	children map[string][]string
	data     map[string][]byte
}

func (f *fakeZK) Children(p string) ([]string, *zk.Stat, error) {
	c, ok := f.children[p]
	if !ok {
		return nil, nil, zk.ErrNoNode
	}
	return c, &zk.Stat{}, nil
}

func (f *fakeZK) Get(p string) ([]byte, *zk.Stat, error) {
	d, ok := f.data[p]
	if !ok {
		return nil, nil, zk.ErrNoNode
	}
	return d, &zk.Stat{}, nil
}

func TestBrokersFromZK_ReadsRegistrations(t *testing.T) {
	f := &fakeZK{
		children: map[string][]string{"/kafka/brokers/ids": {"10", "2", "3"}},
		data: map[string][]byte{
			"/kafka/brokers/ids/2":  []byte(`{"host":"b2","port":9092}`),
			"/kafka/brokers/ids/10": []byte(`{"host":"","port":-1,"endpoints":["SASL_SSL://b10:9093"]}`),
			// id 3 vanished between Children and Get
		},
	}
	got, err := brokersFromZK(f, "/kafka")
	if err != nil {
		t.Fatalf("brokersFromZK: %v", err)
	}
	want := []string{"b2:9092", "b10:9093"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestBrokersFromZK_NoBrokers(t *testing.T) {
	f := &fakeZK{children: map[string][]string{"/brokers/ids": {}}}
	if _, err := brokersFromZK(f, ""); err == nil {
		t.Fatal("expected error when no brokers are registered")
	}
	if _, err := brokersFromZK(&fakeZK{}, ""); !errors.Is(err, zk.ErrNoNode) {
		t.Fatalf("want ErrNoNode for missing path, got %v", err)
	}
}

func TestParseZKConnect(t *testing.T) {
	servers, chroot := parseZKConnect("zk1:2181, zk2:2181/kafka/prod")
	if !reflect.DeepEqual(servers, []string{"zk1:2181", "zk2:2181"}) || chroot != "/kafka/prod" {
		t.Fatalf("unexpected parse: %v %q", servers, chroot)
	}
	servers, chroot = parseZKConnect("localhost:2181")
	if len(servers) != 1 || chroot != "" {
		t.Fatalf("unexpected parse: %v %q", servers, chroot)
	}
}

func TestResolveBrokers_Static(t *testing.T) {
	got, err := ResolveBrokers(context.Background(), "k1:9092,k2:9092", DiscoveryStatic, 0)
	if err != nil {
		t.Fatalf("ResolveBrokers: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"k1:9092", "k2:9092"}) {
		t.Fatalf("unexpected brokers %v", got)
	}
	if _, err := ResolveBrokers(context.Background(), "x", "consul", 0); err == nil {
		t.Fatal("expected error for unknown discovery mode")
	}
}

type captureAdapter struct{ got Config }

func (c *captureAdapter) Subscribe(_ context.Context, cfg Config) (Sequence, error) {
	c.got = cfg
	return nil, errors.New("stop")
}

func TestWithDiscovery_SeedsBrokers(t *testing.T) {
	inner := &captureAdapter{}
	a := WithDiscovery(inner, DiscoveryStatic, 0)

	cfg := Config{}
	cfg.Subscription.Brokers = "b1:9092,b2:9092"
	if _, err := a.Subscribe(context.Background(), cfg); err == nil || err.Error() != "stop" {
		t.Fatalf("want inner error, got %v", err)
	}
	if !reflect.DeepEqual(inner.got.Brokers, []string{"b1:9092", "b2:9092"}) {
		t.Fatalf("unexpected brokers %v", inner.got.Brokers)
	}
}

func TestWithDiscovery_FailureSkipsDriver(t *testing.T) {
	inner := &captureAdapter{}
	a := WithDiscovery(inner, "carrier-pigeon", 0)

	if _, err := a.Subscribe(context.Background(), Config{}); err == nil {
		t.Fatal("want discovery error")
	}
	if inner.got.Subscription.Topic != "" || inner.got.Brokers != nil {
		t.Fatal("driver must not be called when discovery fails")
	}
}
