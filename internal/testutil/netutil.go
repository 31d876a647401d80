package testutil

import (
	"net"
	"testing"
)

// FreeAddr возвращает адрес "host:port" на loopback со свободным портом.
// Порт освобождается сразу, поэтому его может занять другой процесс.
func FreeAddr(t testing.TB) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserving port: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}
