package examtrainer

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// ValidationError is a user-visible import failure: the token could not be
// decoded or the decoded payload is not a structurally valid exam. Imports
// that fail validation never touch the exam collection.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid exam data: %s", e.Reason)
}

// ExportExam serializes the exam to JSON, gzips it, and encodes the result
// as base64, producing a single copy-pasteable token.
func ExportExam(exam Exam) (string, error) {
	data, err := json.Marshal(exam)
	if err != nil {
		return "", fmt.Errorf("failed to marshal exam: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("failed to compress exam: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to compress exam: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ImportExam reverses ExportExam and validates the payload's structure
// before returning it. The caller commits the result through
// ExamStore.AddExam, so an import always allocates a fresh exam id.
func ImportExam(token string) (*Exam, error) {
	compressed, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, &ValidationError{Reason: "not a valid base64 token"}
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, &ValidationError{Reason: "token is not gzip-compressed"}
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, &ValidationError{Reason: "failed to decompress token"}
	}
	if err := zr.Close(); err != nil {
		return nil, &ValidationError{Reason: "failed to decompress token"}
	}

	if err := validateExamPayload(data); err != nil {
		return nil, err
	}

	var exam Exam
	if err := json.Unmarshal(data, &exam); err != nil {
		return nil, &ValidationError{Reason: "payload does not parse as an exam"}
	}
	return &exam, nil
}

// validateExamPayload checks the decoded JSON for the required fields and
// array shapes before any typed parse.
func validateExamPayload(data []byte) error {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return &ValidationError{Reason: "payload is not a JSON object"}
	}

	for _, field := range []string{"id", "name", "detail", "questions", "genres"} {
		if _, ok := payload[field]; !ok {
			return &ValidationError{Reason: fmt.Sprintf("missing required field %q", field)}
		}
	}

	for _, field := range []string{"questions", "genres"} {
		// json.Unmarshal accepts null for a slice, so null needs its own
		// rejection to hold the array-typed requirement.
		if bytes.Equal(bytes.TrimSpace(payload[field]), []byte("null")) {
			return &ValidationError{Reason: fmt.Sprintf("field %q must be an array", field)}
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(payload[field], &arr); err != nil {
			return &ValidationError{Reason: fmt.Sprintf("field %q must be an array", field)}
		}
	}
	return nil
}
