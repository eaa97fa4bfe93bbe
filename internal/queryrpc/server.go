package queryrpc

import (
	"context"
	"net"
	"strings"

	"github.com/mithril-search/mithril/internal/metadata"
	"github.com/mithril-search/mithril/internal/shard"
)

// Server answers the shard RPC of spec §4.10/§6 on behalf of one host's
// shard.Manager: it accepts a connection per query, reads the request
// frame, fans the query out to every shard worker via Manager.AnswerQuery,
// and writes back the response frame.
type Server struct {
	manager  *shard.Manager
	recorder *metadata.Recorder
}

// NewServer binds a Server to manager. recorder may be nil.
func NewServer(manager *shard.Manager, recorder *metadata.Recorder) *Server {
	return &Server{manager: manager, recorder: recorder}
}

// Serve listens on addr and answers shard RPC connections until ctx is
// canceled or the listener errors.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	query, err := ReadRequest(conn)
	if err != nil {
		if s.recorder != nil {
			s.recorder.RecordError("queryrpc", "read_request", metadata.CauseQueryParseFailure, err)
		}
		return
	}

	marginal := s.manager.AnswerQuery(query)
	results := make([]Result, len(marginal))
	for i, r := range marginal {
		results[i] = Result{
			DocID:      r.DocID,
			Score:      r.Score,
			URL:        r.URL,
			TitleWords: strings.Fields(r.Title),
		}
	}

	if err := WriteResponse(conn, results); err != nil && s.recorder != nil {
		s.recorder.RecordError("queryrpc", "write_response", metadata.CauseShardUnavailable, err)
	}
}
