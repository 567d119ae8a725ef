package registry

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/docdex/docdex/internal/framing"
	"github.com/docdex/docdex/internal/protocol"
	"github.com/docdex/docdex/internal/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) (*Store, string) {
	t.Helper()

	store := NewStore()
	server := NewServer(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go server.Serve(ln)
	return store, ln.Addr().String()
}

func dialTestServer(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn net.Conn, raw string) models.ControlResponse {
	t.Helper()
	_, err := conn.Write([]byte(raw))
	require.NoError(t, err)

	data, err := framing.ReadControlResponse(conn)
	require.NoError(t, err)

	resp, err := protocol.ParseControlResponse(data)
	require.NoError(t, err)
	return resp
}

func TestSessionDispatch(t *testing.T) {
	var tests = []struct {
		name string
		run  func(t *testing.T, store *Store, conn net.Conn)
	}{
		{
			name: "announce responds 200 with the applied record",
			run: func(t *testing.T, store *Store, conn net.Conn) {
				resp := roundTrip(t, conn,
					"ANNOUNCE DOC 100 P2P-DI/1.0\r\nHost: hostA\r\nPort: 5000\r\nTitle: Title X\r\n\r\n")
				assert.Equal(t, models.StatusOK, resp.Status)
				assert.Equal(t, []models.Record{
					{DocID: 100, Title: "Title X", Host: "hostA", Port: 5000},
				}, resp.Records)
			},
		},
		{
			name: "query for an unknown document responds 404",
			run: func(t *testing.T, store *Store, conn net.Conn) {
				resp := roundTrip(t, conn,
					"QUERY DOC 999 P2P-DI/1.0\r\nHost: hostB\r\nPort: 6000\r\n\r\n")
				assert.Equal(t, models.StatusNotFound, resp.Status)
				assert.Empty(t, resp.Records)
			},
		},
		{
			name: "query returns all holders newest first",
			run: func(t *testing.T, store *Store, conn net.Conn) {
				store.Announce(100, "Title X", "hostA", 5000)
				store.Announce(100, "Title X", "hostB", 6000)

				resp := roundTrip(t, conn,
					"QUERY DOC 100 P2P-DI/1.0\r\nHost: hostC\r\nPort: 7000\r\n\r\n")
				assert.Equal(t, models.StatusOK, resp.Status)
				require.Len(t, resp.Records, 2)
				assert.Equal(t, "hostB", resp.Records[0].Host)
				assert.Equal(t, "hostA", resp.Records[1].Host)
			},
		},
		{
			name: "enumerate on an empty index responds 200 with zero records",
			run: func(t *testing.T, store *Store, conn net.Conn) {
				resp := roundTrip(t, conn,
					"ENUMERATE ALL P2P-DI/1.0\r\nHost: hostB\r\nPort: 6000\r\n\r\n")
				assert.Equal(t, models.StatusOK, resp.Status)
				assert.Empty(t, resp.Records)
			},
		},
		{
			name: "malformed message responds 400 and the connection stays usable",
			run: func(t *testing.T, store *Store, conn net.Conn) {
				resp := roundTrip(t, conn,
					"QUERY DOC 7 P2P-DI/1.0\r\nHost no colon here\r\nPort: 6000\r\n\r\n")
				assert.Equal(t, models.StatusBadRequest, resp.Status)

				resp = roundTrip(t, conn,
					"ENUMERATE ALL P2P-DI/1.0\r\nHost: hostB\r\nPort: 6000\r\n\r\n")
				assert.Equal(t, models.StatusOK, resp.Status)
			},
		},
		{
			name: "version mismatch responds 505 and the connection stays usable",
			run: func(t *testing.T, store *Store, conn net.Conn) {
				resp := roundTrip(t, conn,
					"QUERY DOC 7 P2P-DI/2.0\r\nHost: hostB\r\nPort: 6000\r\n\r\n")
				assert.Equal(t, models.StatusVersionNotSupported, resp.Status)

				resp = roundTrip(t, conn,
					"ENUMERATE ALL P2P-DI/1.0\r\nHost: hostB\r\nPort: 6000\r\n\r\n")
				assert.Equal(t, models.StatusOK, resp.Status)
			},
		},
		{
			name: "version check happens before any state mutation",
			run: func(t *testing.T, store *Store, conn net.Conn) {
				resp := roundTrip(t, conn,
					"ANNOUNCE DOC 100 P2P-DI/9.9\r\nHost: hostA\r\nPort: 5000\r\nTitle: T\r\n\r\n")
				assert.Equal(t, models.StatusVersionNotSupported, resp.Status)
				assert.Empty(t, store.EnumerateAll())
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			store, addr := startTestServer(t)
			conn := dialTestServer(t, addr)
			tt.run(t, store, conn)
		})
	}
}

func TestSessionCleanupOnDisconnect(t *testing.T) {
	store, addr := startTestServer(t)

	announcer := dialTestServer(t, addr)
	resp := roundTrip(t, announcer,
		"ANNOUNCE DOC 100 P2P-DI/1.0\r\nHost: hostA\r\nPort: 5000\r\nTitle: Title X\r\n\r\n")
	require.Equal(t, models.StatusOK, resp.Status)
	resp = roundTrip(t, announcer,
		"ANNOUNCE DOC 200 P2P-DI/1.0\r\nHost: hostA\r\nPort: 5000\r\nTitle: Title Y\r\n\r\n")
	require.Equal(t, models.StatusOK, resp.Status)

	require.NoError(t, announcer.Close())

	// Purge runs in the session goroutine after it observes the close.
	assert.Eventually(t, func() bool {
		if len(store.Query(100)) != 0 || len(store.Query(200)) != 0 {
			return false
		}
		_, ok := store.PeerPort("hostA")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	other := dialTestServer(t, addr)
	queryResp := roundTrip(t, other,
		"QUERY DOC 100 P2P-DI/1.0\r\nHost: hostB\r\nPort: 6000\r\n\r\n")
	assert.Equal(t, models.StatusNotFound, queryResp.Status)
}

func TestSessionWithoutAnnounceLeavesStoreUntouchedOnDisconnect(t *testing.T) {
	store, addr := startTestServer(t)
	store.Announce(100, "Title X", "hostA", 5000)

	// A session that only queries has no announced identity to purge.
	conn := dialTestServer(t, addr)
	resp := roundTrip(t, conn,
		"QUERY DOC 100 P2P-DI/1.0\r\nHost: hostB\r\nPort: 6000\r\n\r\n")
	require.Equal(t, models.StatusOK, resp.Status)
	require.NoError(t, conn.Close())

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, store.Query(100), 1)
}
