// Lumen Core
// Copyright (c) 2026 The Lumen Launcher Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Lumen Core.
//
// Lumen Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Lumen Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Lumen Core.  If not, see <http://www.gnu.org/licenses/>.

package legendary

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// StreamID identifies one of the subprocess output streams.
type StreamID int

const (
	StreamStdout StreamID = iota
	StreamStderr
)

func (s StreamID) String() string {
	if s == StreamStderr {
		return "stderr"
	}
	return "stdout"
}

const streamChunkSize = 4096

// lineEvent is one complete output line in the merged line sequence both
// stream readers feed into.
type lineEvent struct {
	line   string
	stream StreamID
}

// consumeStream reads pipe until end-of-stream, appending every chunk to
// acc and fanning it out to the input injector, the line sequence and the
// raw observer. Chunks may contain partial lines; only complete lines are
// sent to the line channel, with the remainder carried across chunks. The
// trailing remainder is flushed as a final line at end-of-stream since no
// further bytes can complete it.
//
// Each of the two concurrent instances appends only to its own
// accumulator, so the accumulators need no locking.
func consumeStream(
	stream StreamID,
	pipe io.Reader,
	acc *bytes.Buffer,
	injector *inputInjector,
	lines chan<- lineEvent,
	onRaw func(StreamID, []byte),
) error {
	chunk := make([]byte, streamChunkSize)
	var pending bytes.Buffer

	for {
		n, err := pipe.Read(chunk)
		if n > 0 {
			data := chunk[:n]
			acc.Write(data)
			injector.Observe(stream, data)
			if onRaw != nil {
				onRaw(stream, data)
			}
			if lines != nil {
				pending.Write(data)
				dispatchLines(stream, &pending, lines)
			}
		}
		if err != nil {
			if lines != nil && pending.Len() > 0 {
				lines <- lineEvent{
					stream: stream,
					line:   strings.TrimSuffix(pending.String(), "\r"),
				}
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed reading %s: %w", stream, err)
		}
	}
}

// dispatchLines emits every complete line buffered in pending, leaving any
// trailing partial line in place.
func dispatchLines(stream StreamID, pending *bytes.Buffer, lines chan<- lineEvent) {
	for {
		data := pending.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return
		}
		line := strings.TrimSuffix(string(data[:idx]), "\r")
		pending.Next(idx + 1)
		lines <- lineEvent{stream: stream, line: line}
	}
}
