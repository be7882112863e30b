package app

import (
	"bufio"
	"context"
	"log/slog"
	"net"
)

const maxEchoLine = 64 << 10

// echoHandler writes every received line back to the peer.
func echoHandler(logger *slog.Logger) func(ctx context.Context, conn net.Conn) {
	return func(ctx context.Context, conn net.Conn) {
		peer := conn.RemoteAddr().String()

		logger.DebugContext(ctx, "echo connection opened", "peer", peer)

		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxEchoLine)

		for scanner.Scan() {
			line := make([]byte, 0, len(scanner.Bytes())+1)
			line = append(append(line, scanner.Bytes()...), '\n')

			if _, err := conn.Write(line); err != nil {
				logger.DebugContext(ctx, "echo write failed", "peer", peer, "reason", err)

				return
			}
		}

		logger.DebugContext(ctx, "echo connection closed", "peer", peer)
	}
}
