package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docdex/docdex/internal/shared/models"
)

// ParseTransferRequest decodes a "FETCH DOC <id> <version>" request.
// Host and OS headers are both required.
func ParseTransferRequest(data []byte) (models.TransferRequest, error) {
	first, headers, ok := splitMessage(string(data))
	if !ok {
		return models.TransferRequest{}, ErrMalformed
	}

	parts := strings.Fields(first)
	if len(parts) != 4 || parts[0] != string(models.MethodFetch) || parts[1] != docKeyword {
		return models.TransferRequest{}, ErrMalformed
	}
	id, err := strconv.Atoi(parts[2])
	if err != nil || id < 0 {
		return models.TransferRequest{}, ErrMalformed
	}

	host, ok := headers["Host"]
	if !ok || host == "" {
		return models.TransferRequest{}, ErrMalformed
	}
	osName, ok := headers["OS"]
	if !ok || osName == "" {
		return models.TransferRequest{}, ErrMalformed
	}

	return models.TransferRequest{
		DocID:   id,
		Version: parts[3],
		Host:    host,
		OS:      osName,
	}, nil
}

// FormatTransferRequest renders a fetch request. An empty Version falls
// back to the supported version.
func FormatTransferRequest(req models.TransferRequest) []byte {
	version := req.Version
	if version == "" {
		version = Version
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %d %s%s", models.MethodFetch, docKeyword, req.DocID, version, crlf)
	fmt.Fprintf(&b, "Host: %s%s", req.Host, crlf)
	fmt.Fprintf(&b, "OS: %s%s", req.OS, crlf)
	b.WriteString(crlf)
	return []byte(b.String())
}

// FormatTransferResponse renders the header block and appends the raw
// payload after the blank line. Empty header fields are omitted except
// Content-Length, which is always present so that error responses remain
// parseable by the same decoder as success responses.
func FormatTransferResponse(resp models.TransferResponse) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d %s%s", Version, resp.Status, resp.Status.Phrase(), crlf)
	if resp.Date != "" {
		fmt.Fprintf(&b, "Date: %s%s", resp.Date, crlf)
	}
	if resp.OS != "" {
		fmt.Fprintf(&b, "OS: %s%s", resp.OS, crlf)
	}
	if resp.LastModified != "" {
		fmt.Fprintf(&b, "Last-Modified: %s%s", resp.LastModified, crlf)
	}
	fmt.Fprintf(&b, "Content-Length: %d%s", resp.ContentLength, crlf)
	if resp.ContentType != "" {
		fmt.Fprintf(&b, "Content-Type: %s%s", resp.ContentType, crlf)
	}
	b.WriteString(crlf)
	return append([]byte(b.String()), resp.Body...)
}

// ParseTransferResponseHeader decodes the header block of a transfer
// response. The payload is not part of the header block; the caller reads
// Content-Length bytes past it and fills Body itself.
func ParseTransferResponseHeader(data []byte) (models.TransferResponse, error) {
	first, headers, ok := splitMessage(string(data))
	if !ok {
		return models.TransferResponse{}, ErrMalformed
	}

	parts := strings.Fields(first)
	if len(parts) < 3 {
		return models.TransferResponse{}, ErrMalformed
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return models.TransferResponse{}, ErrMalformed
	}

	resp := models.TransferResponse{
		Version:      parts[0],
		Status:       models.Status(code),
		Date:         headers["Date"],
		OS:           headers["OS"],
		LastModified: headers["Last-Modified"],
		ContentType:  headers["Content-Type"],
	}
	if raw, ok := headers["Content-Length"]; ok {
		length, err := strconv.Atoi(raw)
		if err != nil || length < 0 {
			return models.TransferResponse{}, ErrMalformed
		}
		resp.ContentLength = length
	}

	return resp, nil
}
