package terminal

import (
	"time"

	"github.com/antibyte/zen/pkg/configuration"
)

// Websocket settings, read from the [Server] section.

func getWriteWait() time.Duration {
	return configuration.GetDuration("Server", "write_wait_timeout", 10*time.Second)
}

func getPongWait() time.Duration {
	return configuration.GetDuration("Server", "pong_timeout", 60*time.Second)
}

func getPingPeriod() time.Duration {
	return (getPongWait() * 9) / 10
}

func getMaxMessageSize() int64 {
	return int64(configuration.GetInt("Server", "max_message_size_kb", 64) * 1024)
}

func getMaxChannelBuffer() int {
	return configuration.GetInt("Server", "max_channel_buffer", 1024)
}

func getMaxClients() int {
	return configuration.GetInt("Server", "max_clients", MaxClientsDefault)
}

// getMaxRunDuration bounds a single remote run; goto loops never end on
// their own.
func getMaxRunDuration() time.Duration {
	return configuration.GetDuration("Server", "max_run_duration", 30*time.Second)
}
