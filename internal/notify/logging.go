// SPDX-License-Identifier: MIT
package notify

import "github.com/Mkinney99/sushi/internal/logging"

// LoggingSink implements Sink by logging every notification. Useful as a
// zero-configuration default and in tests where no client connects over
// WebSocket.
type LoggingSink struct{}

// NewLoggingSink creates a LoggingSink.
func NewLoggingSink() *LoggingSink {
	return &LoggingSink{}
}

func (s *LoggingSink) Send(data any) error {
	logging.Debugf("notify: %+v", data)
	return nil
}

func (s *LoggingSink) Close() error { return nil }

var _ Sink = (*LoggingSink)(nil)
