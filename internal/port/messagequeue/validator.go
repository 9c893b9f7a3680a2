package messagequeue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate checks whether data is publishable on the given subject. Both
// research subjects carry free-form JSON objects: the derivation core accepts
// any object shape, so validation stops at "is a JSON object". Unknown
// subjects pass validation (future-proof for new message types).
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch {
	case strings.HasPrefix(subject, SubjectStreamEvents+"."),
		strings.HasPrefix(subject, SubjectLifecycleEvents+"."):
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("subject %s requires a JSON object: %w", subject, err)
		}
		return nil
	default:
		return nil
	}
}
