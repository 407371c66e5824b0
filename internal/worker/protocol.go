package worker

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/scan-io-git/sariflens/internal/sarif"
)

// MessageType tags every message crossing the task boundary.
type MessageType string

const (
	TypeParseSARIF    MessageType = "PARSE_SARIF"
	TypeParseProgress MessageType = "PARSE_PROGRESS"
	TypeParseComplete MessageType = "PARSE_COMPLETE"
	TypeParseError    MessageType = "PARSE_ERROR"
)

// Request asks for one document to be parsed.
type Request struct {
	ID      string         `json:"id,omitempty"`
	Type    MessageType    `json:"type"`
	Payload RequestPayload `json:"payload"`
}

// RequestPayload carries the document and the name it is reported under.
type RequestPayload struct {
	FileContent string `json:"fileContent"`
	FileName    string `json:"fileName"`
}

// NewParseRequest builds a PARSE_SARIF request with a fresh id.
func NewParseRequest(fileName string, content []byte) Request {
	return Request{
		ID:   uuid.NewString(),
		Type: TypeParseSARIF,
		Payload: RequestPayload{
			FileContent: string(content),
			FileName:    fileName,
		},
	}
}

// Message is one response. Payload is a ProgressPayload, a CompletePayload or
// an ErrorPayload depending on Type.
type Message struct {
	RequestID string      `json:"requestId,omitempty"`
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload"`
}

type ProgressPayload struct {
	Progress int    `json:"progress"`
	Stage    string `json:"stage"`
}

type CompletePayload struct {
	Report   sarif.Report     `json:"report"`
	Summary  sarif.Summary    `json:"summary"`
	Findings []*sarif.Finding `json:"findings"`
}

type ErrorPayload struct {
	Error   string          `json:"error"`
	Details string          `json:"details,omitempty"`
	Kind    sarif.ErrorKind `json:"kind"`
}

// Terminal reports whether m ends the stream.
func (m Message) Terminal() bool {
	return m.Type == TypeParseComplete || m.Type == TypeParseError
}

func progressMessage(requestID string, percent int, stage string) Message {
	return Message{
		RequestID: requestID,
		Type:      TypeParseProgress,
		Payload:   ProgressPayload{Progress: percent, Stage: stage},
	}
}

func completeMessage(requestID string, result *sarif.Result) Message {
	return Message{
		RequestID: requestID,
		Type:      TypeParseComplete,
		Payload: CompletePayload{
			Report:   result.Report,
			Summary:  result.Summary,
			Findings: result.Findings,
		},
	}
}

func errorMessage(requestID, fileName string, err error) Message {
	return Message{
		RequestID: requestID,
		Type:      TypeParseError,
		Payload:   errorPayload(fileName, err),
	}
}

func errorPayload(fileName string, err error) ErrorPayload {
	var pe *sarif.ParseError
	if !errors.As(err, &pe) {
		pe = sarif.NewTransportFailure(err.Error(), err)
	}
	text := pe.Message
	if fileName != "" {
		text = fmt.Sprintf("failed to parse SARIF file %q: %s", fileName, pe.Message)
	}
	return ErrorPayload{
		Error:   text,
		Details: pe.Detail,
		Kind:    pe.Kind,
	}
}
