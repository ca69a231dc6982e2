// Package mailbody turns a fetched message payload into its subject and
// plain-text body.
package mailbody

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rl1809/po-watcher/internal/core/domain"
)

const plainText = "text/plain"

var (
	fromTransport = strings.NewReplacer("-", "+", "_", "/", "\r", "", "\n", "")
	toTransport   = strings.NewReplacer("+", "-", "/", "_")
)

// Decode returns the subject and plain-text body of payload. Either is nil
// when the payload does not carry it.
func Decode(payload domain.MessagePart) (subject, body *string, err error) {
	subject = Subject(payload.Headers)

	data, ok := selectBody(payload)
	if !ok {
		return subject, nil, nil
	}

	text, err := DecodeData(data)
	if err != nil {
		return subject, nil, err
	}
	return subject, &text, nil
}

// Subject returns the value of the first header named "subject", ignoring
// case.
func Subject(headers []domain.Header) *string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, "subject") {
			v := h.Value
			return &v
		}
	}
	return nil
}

// selectBody picks the first text/plain part when the payload has parts and
// the top-level body otherwise.
func selectBody(payload domain.MessagePart) (string, bool) {
	if len(payload.Parts) > 0 {
		for _, part := range payload.Parts {
			if part.MimeType == plainText {
				return part.Body.Data, true
			}
		}
		return "", false
	}
	if payload.Body.Data != "" {
		return payload.Body.Data, true
	}
	return "", false
}

// DecodeData decodes URL-safe base64 transport data into UTF-8 text.
// Padding is optional.
func DecodeData(data string) (string, error) {
	std := strings.TrimRight(fromTransport.Replace(data), "=")
	raw, err := base64.RawStdEncoding.DecodeString(std)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: body is not valid UTF-8", domain.ErrDecode)
	}
	return string(raw), nil
}

// Encode is the inverse of DecodeData.
func Encode(text string) string {
	return toTransport.Replace(base64.StdEncoding.EncodeToString([]byte(text)))
}
