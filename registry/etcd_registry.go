package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

const etcdPrefix = "/renvim/"

// EtcdRegistry implements Registry using etcd v3. Editors that listen on TCP
// can publish their address for clients on other hosts:
//
//	Key:   /renvim/{name}
//	Value: JSON-encoded Instance
//
// Registration uses a TTL lease, so the key disappears when the publishing
// process stops renewing it.
type EtcdRegistry struct {
	client  *clientv3.Client
	name    string
	timeout time.Duration // Bounds dialing and Discover
}

// NewEtcdRegistry creates a registry for the editor published as name. The
// etcd client logs through logger; nil discards its output.
func NewEtcdRegistry(endpoints []string, name string, timeout time.Duration, logger *zap.Logger) (*EtcdRegistry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: timeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c, name: name, timeout: timeout}, nil
}

func (r *EtcdRegistry) key() string {
	return etcdPrefix + r.name
}

// Register publishes instance under the registry's name with a TTL lease and
// keeps the lease alive until ctx ends.
func (r *EtcdRegistry) Register(ctx context.Context, instance Instance, ttl int64) error {
	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	if _, err := r.client.Put(ctx, r.key(), string(val), clientv3.WithLease(lease.ID)); err != nil {
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}

	// Consume KeepAlive responses to prevent the channel from filling up
	go func() {
		for range ch {
		}
	}()
	return nil
}

// Deregister removes the published address.
func (r *EtcdRegistry) Deregister(ctx context.Context) error {
	_, err := r.client.Delete(ctx, r.key())
	return err
}

// Discover returns the published address.
func (r *EtcdRegistry) Discover(ctx context.Context) (*Instance, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	resp, err := r.client.Get(ctx, r.key())
	if err != nil {
		return nil, fmt.Errorf("etcd get %s: %w", r.key(), err)
	}
	if len(resp.Kvs) == 0 {
		return nil, ErrNotFound
	}

	var inst Instance
	if err := json.Unmarshal(resp.Kvs[0].Value, &inst); err != nil {
		return nil, fmt.Errorf("etcd value for %s: %w", r.key(), err)
	}
	if inst.Addr == "" {
		return nil, ErrNotFound
	}
	inst.Source = "etcd"
	return &inst, nil
}

func (r *EtcdRegistry) Close() error {
	return r.client.Close()
}
