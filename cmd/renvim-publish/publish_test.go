package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"renvim/registry"
	"renvim/registry/etcdtest"
)

func newTestPublisher(t *testing.T, endpoints []string, env map[string]string) *publisher {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[registry]\netcd_timeout_ms = 2000\n"
	if len(endpoints) > 0 {
		content += fmt.Sprintf("etcd_endpoints = [%q]\n", endpoints[0])
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	vars := map[string]string{configEnvVar: path}
	for k, v := range env {
		vars[k] = v
	}
	return &publisher{
		stderr: &bytes.Buffer{},
		lookupEnv: func(name string) (string, bool) {
			v, ok := vars[name]
			return v, ok
		},
	}
}

func discover(t *testing.T, endpoints []string, name string) (*registry.Instance, error) {
	t.Helper()
	reg, err := registry.NewEtcdRegistry(endpoints, name, 2*time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()
	return reg.Discover(context.Background())
}

func TestPublishUntilCanceled(t *testing.T) {
	endpoints := etcdtest.Start(t)
	p := newTestPublisher(t, endpoints, map[string]string{"NVIM": "10.0.0.5:6666"})

	published := make(chan registry.Instance, 1)
	p.published = func(inst registry.Instance) { published <- inst }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := newRootCommand(p)
	cmd.SetArgs([]string{"--name", "laptop", "--ttl", "5"})
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	select {
	case inst := <-published:
		if inst.Addr != "10.0.0.5:6666" {
			t.Fatalf("unexpected instance %+v", inst)
		}
	case err := <-done:
		t.Fatalf("publish returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("address was not published")
	}

	inst, err := discover(t, endpoints, "laptop")
	if err != nil || inst.Addr != "10.0.0.5:6666" {
		t.Fatalf("expect published address, got %+v, %v", inst, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("publish did not stop after cancel")
	}

	if _, err := discover(t, endpoints, "laptop"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expect address withdrawn, got %v", err)
	}
}

func TestPublishExplicitAddress(t *testing.T) {
	endpoints := etcdtest.Start(t)
	p := newTestPublisher(t, endpoints, nil)

	ctx, cancel := context.WithCancel(context.Background())
	p.published = func(registry.Instance) { cancel() }

	cmd := newRootCommand(p)
	cmd.SetArgs([]string{"192.168.1.2:7777"})
	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestPublishErrors(t *testing.T) {
	cases := []struct {
		name      string
		endpoints []string
		args      []string
		want      string
	}{
		{"no etcd", nil, []string{"10.0.0.5:6666"}, "registry.etcd_endpoints is not set"},
		{"no address", []string{"127.0.0.1:1"}, []string{}, "no address to publish"},
		{"bad ttl", []string{"127.0.0.1:1"}, []string{"--ttl", "0", "10.0.0.5:6666"}, "ttl must be >= 1"},
	}

	for _, tc := range cases {
		cmd := newRootCommand(newTestPublisher(t, tc.endpoints, nil))
		cmd.SetArgs(tc.args)
		err := cmd.ExecuteContext(context.Background())
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: expect error containing %q, got %v", tc.name, tc.want, err)
		}
	}
}
