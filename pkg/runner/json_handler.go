package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/tagbot/pkg/ports"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
//
// Each input line is either a JSON object {"text": "..."}, a JSON string, or raw text.
// Each reply is written as one JSON object per line.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// jsonInput is an incoming message.
type jsonInput struct {
	Text string `json:"text"`
}

// jsonOutput is an outgoing reply or diagnostic.
type jsonOutput struct {
	Name   string `json:"name,omitempty"`
	Reply  string `json:"reply,omitempty"`
	State  string `json:"state,omitempty"`
	Turns  int    `json:"turns,omitempty"`
	Error  string `json:"error,omitempty"`
	System string `json:"system,omitempty"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		line, err := h.Reader.ReadString('\n')
		if line == "" && err != nil {
			return "", err
		}

		text := decodeJSONInput(strings.TrimSpace(line))
		clean, sanErr := SanitizeInput(text)
		if sanErr != nil {
			if encErr := h.Encoder.Encode(jsonOutput{Error: sanErr.Error()}); encErr != nil {
				return "", encErr
			}
			if err != nil {
				return "", err
			}
			continue
		}
		return clean, nil
	}
}

// decodeJSONInput accepts {"text": ...}, a JSON string or raw text.
func decodeJSONInput(line string) string {
	if strings.HasPrefix(line, "{") {
		var in jsonInput
		if err := json.Unmarshal([]byte(line), &in); err == nil {
			return strings.TrimSpace(in.Text)
		}
	}
	var val string
	if err := json.Unmarshal([]byte(line), &val); err == nil {
		return strings.TrimSpace(val)
	}
	return line
}

func (h *JSONHandler) Output(ctx context.Context, name string, reply ports.Reply) error {
	out := jsonOutput{
		Name:  name,
		Reply: reply.Text,
		State: reply.State,
		Turns: reply.Turns,
	}
	if reply.Err != nil {
		out.Error = reply.Err.Error()
	}
	return h.Encoder.Encode(out)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(jsonOutput{System: msg})
}
