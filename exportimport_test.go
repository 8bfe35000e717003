package examtrainer

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func sampleExam() Exam {
	return Exam{
		ID:     42,
		Name:   "Road Signs",
		Detail: "European road sign recognition",
		Genres: []Genre{
			{ID: 1, Name: "warning"},
			{ID: 2, Name: "regulatory"},
		},
		Questions: []Question{
			{
				ID:       10,
				Question: "What does a red-bordered triangle indicate?",
				Detail:   "Warning signs are triangular in most of Europe.",
				Genre:    "warning",
				Choices: []Choice{
					{ID: 1, Choice: "A warning", IsCorrect: true},
					{ID: 2, Choice: "A prohibition"},
					{ID: 3, Choice: "An obligation"},
				},
			},
		},
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	original := sampleExam()

	token, err := ExportExam(original)
	if err != nil {
		t.Fatalf("ExportExam failed: %v", err)
	}
	if strings.ContainsAny(token, " \n\t") {
		t.Error("token should be a single copy-pasteable string")
	}

	imported, err := ImportExam(token)
	if err != nil {
		t.Fatalf("ImportExam failed: %v", err)
	}
	if !reflect.DeepEqual(*imported, original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *imported, original)
	}
}

func TestImportRejectsBadTokens(t *testing.T) {
	gzipped := func(payload string) string {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		zw.Write([]byte(payload))
		zw.Close()
		return base64.StdEncoding.EncodeToString(buf.Bytes())
	}

	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "!!! definitely not base64 !!!"},
		{"base64 but not gzip", base64.StdEncoding.EncodeToString([]byte("plain text"))},
		{"gzip but not json", gzipped("not json at all")},
		{"json but not an object", gzipped(`[1, 2, 3]`)},
		{"missing genres", gzipped(`{"id":1,"name":"x","detail":"","questions":[]}`)},
		{"missing questions", gzipped(`{"id":1,"name":"x","detail":"","genres":[]}`)},
		{"questions not an array", gzipped(`{"id":1,"name":"x","detail":"","questions":{},"genres":[]}`)},
		{"genres not an array", gzipped(`{"id":1,"name":"x","detail":"","questions":[],"genres":"none"}`)},
		{"questions null", gzipped(`{"id":1,"name":"x","detail":"","questions":null,"genres":[]}`)},
		{"genres null", gzipped(`{"id":1,"name":"x","detail":"","questions":[],"genres":null}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImportExam(tt.token)
			if err == nil {
				t.Fatal("expected import to fail")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestImportAcceptsMinimalPayload(t *testing.T) {
	minimal := Exam{ID: 1, Name: "bare", Genres: []Genre{}, Questions: []Question{}}

	token, err := ExportExam(minimal)
	if err != nil {
		t.Fatalf("ExportExam failed: %v", err)
	}
	imported, err := ImportExam(token)
	if err != nil {
		t.Fatalf("ImportExam failed: %v", err)
	}
	if imported.Name != "bare" || len(imported.Questions) != 0 {
		t.Errorf("unexpected import result: %+v", imported)
	}
}

func TestImportedExamGetsFreshID(t *testing.T) {
	storage := newMemStorage()
	store := NewExamStore(storage)

	token, err := ExportExam(sampleExam())
	if err != nil {
		t.Fatalf("ExportExam failed: %v", err)
	}
	imported, err := ImportExam(token)
	if err != nil {
		t.Fatalf("ImportExam failed: %v", err)
	}

	created, err := store.AddExam(ExamDraft{Name: imported.Name, Detail: imported.Detail})
	if err != nil {
		t.Fatalf("AddExam failed: %v", err)
	}
	if created.ID == imported.ID {
		t.Errorf("imported exam kept its embedded id %d", imported.ID)
	}

	created.Genres = imported.Genres
	created.Questions = imported.Questions
	if err := store.UpdateExam(created); err != nil {
		t.Fatalf("UpdateExam failed: %v", err)
	}

	got, err := store.Exam(created.ID)
	if err != nil {
		t.Fatalf("Exam lookup failed: %v", err)
	}
	if len(got.Questions) != 1 || got.Questions[0].Question != "What does a red-bordered triangle indicate?" {
		t.Errorf("imported questions not committed: %+v", got.Questions)
	}
}
