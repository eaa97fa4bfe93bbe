package querycoord_test

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mithril-search/mithril/internal/config"
	"github.com/mithril-search/mithril/internal/querycoord"
	"github.com/mithril-search/mithril/internal/queryrpc"
)

// fakeShard starts a listener that answers every query with results,
// standing in for a real internal/queryrpc.Server-backed worker host.
func fakeShard(t *testing.T, results []queryrpc.Result) config.ShardEndpoint {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				if _, err := queryrpc.ReadRequest(conn); err != nil {
					return
				}
				_ = queryrpc.WriteResponse(conn, results)
			}()
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return config.ShardEndpoint{Host: host, Port: port}
}

func deadEndpoint(t *testing.T) config.ShardEndpoint {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	ln.Close() // nothing listens here anymore
	return config.ShardEndpoint{Host: host, Port: port}
}

func TestAnswerMergesAcrossShards(t *testing.T) {
	ep1 := fakeShard(t, []queryrpc.Result{{DocID: 1, Score: 10, URL: "http://a"}})
	ep2 := fakeShard(t, []queryrpc.Result{{DocID: 2, Score: 50, URL: "http://b"}})

	coordinator := querycoord.New([]config.ShardEndpoint{ep1, ep2}, 10, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	results, err := coordinator.Answer(ctx, "whatever")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, uint32(2), results[0].DocID) // higher score first
	require.Equal(t, uint32(1), results[1].DocID)
}

func TestAnswerTruncatesToTopK(t *testing.T) {
	ep := fakeShard(t, []queryrpc.Result{
		{DocID: 1, Score: 10, URL: "http://a"},
		{DocID: 2, Score: 20, URL: "http://b"},
		{DocID: 3, Score: 30, URL: "http://c"},
	})
	coordinator := querycoord.New([]config.ShardEndpoint{ep}, 2, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	results, err := coordinator.Answer(ctx, "q")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, uint32(3), results[0].DocID)
}

func TestAnswerSkipsUnavailableShardWithoutFailingQuery(t *testing.T) {
	good := fakeShard(t, []queryrpc.Result{{DocID: 9, Score: 5, URL: "http://good"}})
	bad := deadEndpoint(t)

	coordinator := querycoord.New([]config.ShardEndpoint{good, bad}, 10, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	results, err := coordinator.Answer(ctx, "q")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, uint32(9), results[0].DocID)
}

func TestAnswerWithNoShardsErrors(t *testing.T) {
	coordinator := querycoord.New(nil, 10, nil)
	_, err := coordinator.Answer(context.Background(), "q")
	require.Error(t, err)
}
