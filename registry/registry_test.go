package registry

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStaticRegisterAndDiscover(t *testing.T) {
	ctx := context.Background()
	reg := NewStatic(Endpoint{Name: "node-a", URL: "ws://10.0.0.1:9944", Weight: 10})

	require.NoError(t, reg.Register(ctx, Endpoint{Name: "node-b", URL: "ws://10.0.0.2:9944", Weight: 5}, 0))

	endpoints, err := reg.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, endpoints, 2)

	require.NoError(t, reg.Deregister(ctx, Endpoint{Name: "node-a"}))

	endpoints, err = reg.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	require.Equal(t, "node-b", endpoints[0].Name)
}

func TestStaticRegisterReplacesByName(t *testing.T) {
	ctx := context.Background()
	reg := NewStatic()

	require.NoError(t, reg.Register(ctx, Endpoint{Name: "node-a", URL: "ws://old:9944"}, 0))
	require.NoError(t, reg.Register(ctx, Endpoint{Name: "node-a", URL: "ws://new:9944"}, 0))

	endpoints, err := reg.Discover(ctx)
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	require.Equal(t, "ws://new:9944", endpoints[0].URL)
}

func TestStaticWatch(t *testing.T) {
	ctx := context.Background()
	reg := NewStatic()
	ch := reg.Watch(ctx)

	require.NoError(t, reg.Register(ctx, Endpoint{Name: "node-a", URL: "ws://10.0.0.1:9944"}, 0))

	select {
	case endpoints := <-ch:
		require.Len(t, endpoints, 1)
	case <-time.After(time.Second):
		t.Fatal("no watch notification")
	}
}

// Needs a live etcd; set ETCD_ENDPOINTS (e.g. "127.0.0.1:2379") to run.
func TestEtcdRegisterAndDiscover(t *testing.T) {
	raw := os.Getenv("ETCD_ENDPOINTS")
	if raw == "" {
		t.Skip("ETCD_ENDPOINTS not set")
	}

	reg, err := NewEtcdRegistry(strings.Split(raw, ","))
	require.NoError(t, err)
	defer reg.Close()

	ctx := context.Background()
	ep1 := Endpoint{Name: "node-a", URL: "ws://10.0.0.1:9944", Weight: 10}
	ep2 := Endpoint{Name: "node-b", URL: "ws://10.0.0.2:9944", Weight: 5}

	require.NoError(t, reg.Register(ctx, ep1, 10))
	require.NoError(t, reg.Register(ctx, ep2, 10))
	defer reg.Deregister(ctx, ep1)
	defer reg.Deregister(ctx, ep2)

	endpoints, err := reg.Discover(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(endpoints), 2)

	require.NoError(t, reg.Deregister(ctx, ep1))
	time.Sleep(100 * time.Millisecond)

	endpoints, err = reg.Discover(ctx)
	require.NoError(t, err)
	for _, ep := range endpoints {
		require.NotEqual(t, "node-a", ep.Name)
	}
}
