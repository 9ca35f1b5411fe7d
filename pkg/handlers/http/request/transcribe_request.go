package request

import (
	"encoding/base64"
	"fmt"
	"strings"
)

type TranscribeRequest struct {
	Audio string `json:"audio"`
}

// Decode returns the raw audio bytes. A data URL prefix is accepted.
func (r *TranscribeRequest) Decode() ([]byte, error) {
	data := strings.TrimSpace(r.Audio)
	if i := strings.Index(data, ";base64,"); strings.HasPrefix(data, "data:") && i > 0 {
		data = data[i+len(";base64,"):]
	}
	if data == "" {
		return nil, fmt.Errorf("audio is required")
	}
	audio, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("audio is not valid base64: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("audio is empty")
	}
	return audio, nil
}
