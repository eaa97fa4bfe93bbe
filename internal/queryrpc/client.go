package queryrpc

import (
	"context"
	"net"
)

// Query dials addr, sends query as a request frame, and reads back the
// response frame, per spec §4.10: "opens one TCP connection per shard ...
// sends a binary frame ... reads a response."
func Query(ctx context.Context, addr, query string) ([]Result, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := WriteRequest(conn, query); err != nil {
		return nil, err
	}
	return ReadResponse(conn)
}
