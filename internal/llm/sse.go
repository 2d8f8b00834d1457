package llm

import (
	"bufio"
	"io"
	"strings"
)

const maxEventSize = 4 << 20

// readSSE reads a server-sent event stream and calls onData with the joined
// data lines of each event. Comments and non-data fields are ignored.
func readSSE(r io.Reader, onData func([]byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var data []byte
	pending := false
	flush := func() error {
		if !pending {
			return nil
		}
		d := data
		data, pending = nil, false
		if string(d) == "[DONE]" {
			return nil
		}
		return onData(d)
	}

	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		switch {
		case line == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "data:"):
			v := strings.TrimPrefix(line, "data:")
			v = strings.TrimPrefix(v, " ")
			if pending {
				data = append(data, '\n')
			}
			data = append(data, v...)
			pending = true
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return flush()
}
