package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docdex/docdex/internal/shared/models"
)

// ParseControlRequest decodes one Announce/Query/Enumerate request.
// Recognized first lines:
//
//	ANNOUNCE DOC <id> <version>
//	QUERY DOC <id> <version>
//	ENUMERATE ALL <version>
//
// Host and Port headers are required for all three; Title is optional and
// defaults to empty. Anything else is ErrMalformed. The version token is
// carried through untouched: the gate belongs to the caller.
func ParseControlRequest(data []byte) (models.ControlRequest, error) {
	first, headers, ok := splitMessage(string(data))
	if !ok {
		return models.ControlRequest{}, ErrMalformed
	}

	parts := strings.Fields(first)
	var req models.ControlRequest
	switch len(parts) {
	case 3:
		if parts[0] != string(models.MethodEnumerate) || parts[1] != allKeyword {
			return models.ControlRequest{}, ErrMalformed
		}
		req.Method = models.MethodEnumerate
		req.Version = parts[2]
	case 4:
		if parts[0] != string(models.MethodAnnounce) && parts[0] != string(models.MethodQuery) {
			return models.ControlRequest{}, ErrMalformed
		}
		if parts[1] != docKeyword {
			return models.ControlRequest{}, ErrMalformed
		}
		id, err := strconv.Atoi(parts[2])
		if err != nil || id < 0 {
			return models.ControlRequest{}, ErrMalformed
		}
		req.Method = models.Method(parts[0])
		req.DocID = id
		req.Version = parts[3]
	default:
		return models.ControlRequest{}, ErrMalformed
	}

	host, port, err := requireHostPort(headers)
	if err != nil {
		return models.ControlRequest{}, err
	}
	req.Host = host
	req.Port = port
	req.Title = headers["Title"]

	return req, nil
}

func requireHostPort(headers map[string]string) (string, int, error) {
	host, ok := headers["Host"]
	if !ok || host == "" {
		return "", 0, ErrMalformed
	}
	rawPort, ok := headers["Port"]
	if !ok {
		return "", 0, ErrMalformed
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, ErrMalformed
	}
	return host, port, nil
}

// FormatControlRequest renders a control request. An empty Version falls
// back to the supported version. Formatting is total.
func FormatControlRequest(req models.ControlRequest) []byte {
	version := req.Version
	if version == "" {
		version = Version
	}

	var b strings.Builder
	if req.Method == models.MethodEnumerate {
		fmt.Fprintf(&b, "%s %s %s%s", models.MethodEnumerate, allKeyword, version, crlf)
	} else {
		fmt.Fprintf(&b, "%s %s %d %s%s", req.Method, docKeyword, req.DocID, version, crlf)
	}
	fmt.Fprintf(&b, "Host: %s%s", req.Host, crlf)
	fmt.Fprintf(&b, "Port: %d%s", req.Port, crlf)
	if req.Method != models.MethodEnumerate {
		fmt.Fprintf(&b, "Title: %s%s", req.Title, crlf)
	}
	b.WriteString(crlf)
	return []byte(b.String())
}

// FormatControlResponse renders a registry response: status line, blank
// line, zero or more record lines, trailing blank line. A zero-record
// response therefore carries two back-to-back blank lines.
func FormatControlResponse(status models.Status, records []models.Record) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d %s%s%s", Version, status, status.Phrase(), crlf, crlf)
	for _, rec := range records {
		fmt.Fprintf(&b, "%d %s %s %d%s", rec.DocID, rec.Title, rec.Host, rec.Port, crlf)
	}
	b.WriteString(crlf)
	return []byte(b.String())
}

// ParseControlResponse decodes a registry response. Record lines hold
// "<id> <title...> <host> <port>": the title may contain spaces, so the
// last two tokens are host and port and everything between the id and
// them is the title.
func ParseControlResponse(data []byte) (models.ControlResponse, error) {
	lines := strings.Split(string(data), crlf)
	if len(lines) == 0 {
		return models.ControlResponse{}, ErrMalformed
	}

	statusParts := strings.Fields(lines[0])
	if len(statusParts) < 3 {
		return models.ControlResponse{}, ErrMalformed
	}
	code, err := strconv.Atoi(statusParts[1])
	if err != nil {
		return models.ControlResponse{}, ErrMalformed
	}

	resp := models.ControlResponse{
		Version: statusParts[0],
		Status:  models.Status(code),
	}

	blank := -1
	for i, line := range lines[1:] {
		if line == "" {
			blank = i + 1
			break
		}
	}
	if blank == -1 {
		return models.ControlResponse{}, ErrMalformed
	}

	for _, line := range lines[blank+1:] {
		if line == "" {
			break
		}
		rec, err := parseRecordLine(line)
		if err != nil {
			return models.ControlResponse{}, err
		}
		resp.Records = append(resp.Records, rec)
	}

	return resp, nil
}

func parseRecordLine(line string) (models.Record, error) {
	parts := strings.Fields(line)
	if len(parts) < 3 {
		return models.Record{}, ErrMalformed
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil || id < 0 {
		return models.Record{}, ErrMalformed
	}
	port, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || port < 0 || port > 65535 {
		return models.Record{}, ErrMalformed
	}
	return models.Record{
		DocID: id,
		Title: strings.Join(parts[1:len(parts)-2], " "),
		Host:  parts[len(parts)-2],
		Port:  port,
	}, nil
}
