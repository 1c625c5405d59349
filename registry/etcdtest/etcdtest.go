// Package etcdtest runs a single-member etcd inside the test process, so the
// etcd registry can be exercised without an external cluster.
package etcdtest

import (
	"net"
	"net/url"
	"testing"
	"time"

	"go.etcd.io/etcd/server/v3/embed"
)

const readyTimeout = 10 * time.Second

// Start launches etcd on free loopback ports and returns its client
// endpoints. The server is stopped when the test ends.
func Start(t testing.TB) []string {
	t.Helper()

	clientURL := freeURL(t)
	peerURL := freeURL(t)

	cfg := embed.NewConfig()
	cfg.Name = "renvim-test"
	cfg.Dir = t.TempDir()
	cfg.LogLevel = "error"
	cfg.ListenClientUrls = []url.URL{clientURL}
	cfg.AdvertiseClientUrls = []url.URL{clientURL}
	cfg.ListenPeerUrls = []url.URL{peerURL}
	cfg.AdvertisePeerUrls = []url.URL{peerURL}
	cfg.InitialCluster = cfg.InitialClusterFromName(cfg.Name)

	e, err := embed.StartEtcd(cfg)
	if err != nil {
		t.Fatalf("start etcd: %v", err)
	}
	t.Cleanup(e.Close)

	select {
	case <-e.Server.ReadyNotify():
	case <-time.After(readyTimeout):
		t.Fatalf("etcd not ready after %s", readyTimeout)
	}
	return []string{clientURL.Host}
}

// freeURL reserves a loopback port long enough to learn its number.
func freeURL(t testing.TB) url.URL {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()
	return url.URL{Scheme: "http", Host: addr}
}
