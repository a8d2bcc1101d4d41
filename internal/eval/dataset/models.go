package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Record is one DocVQA question.
// Dataset: https://huggingface.co/datasets/lmms-lab/DocVQA
type Record struct {
	QuestionID    QuestionID `json:"questionId" parquet:"questionId"`
	Question      string     `json:"question" parquet:"question"`
	QuestionTypes []string   `json:"question_types,omitempty" parquet:"question_types,list,optional"`
	Answers       []string   `json:"answers" parquet:"answers,list"`
	DocID         int64      `json:"docId,omitempty" parquet:"docId,optional"`

	// The page image is either embedded (parquet exports) or referenced by a
	// path relative to the dataset file (the original annotation JSON).
	Image     Image  `json:"image" parquet:"image"`
	ImagePath string `json:"image_path,omitempty" parquet:"image_path,optional"`
}

// Image is the HuggingFace image feature: raw bytes plus the source path.
type Image struct {
	Bytes []byte `json:"bytes,omitempty" parquet:"bytes,optional"`
	Path  string `json:"path,omitempty" parquet:"path,optional"`
}

// UnmarshalJSON accepts either {"bytes": ..., "path": ...} or a bare path
// string, which is how the original DocVQA annotations reference pages.
func (i *Image) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		return json.Unmarshal(data, &i.Path)
	}
	type plain Image
	return json.Unmarshal(data, (*plain)(i))
}

// QuestionID is a question identifier. The annotation JSON uses numbers and
// the parquet exports use strings.
type QuestionID string

func (q *QuestionID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("questionId must be a string or number: %w", err)
	}
	*q = QuestionID(n.String())
	return nil
}

// ImageName returns a file name for the record's page image.
func (r *Record) ImageName() string {
	switch {
	case r.ImagePath != "":
		return filepath.Base(r.ImagePath)
	case r.Image.Path != "":
		return filepath.Base(r.Image.Path)
	default:
		return fmt.Sprintf("question_%s.png", r.QuestionID)
	}
}

// ImageBytes returns the page image, reading it from disk when it is not
// embedded. Relative paths are resolved against baseDir.
func (r *Record) ImageBytes(baseDir string) ([]byte, error) {
	if len(r.Image.Bytes) > 0 {
		return r.Image.Bytes, nil
	}

	path := r.ImagePath
	if path == "" {
		path = r.Image.Path
	}
	if path == "" {
		return nil, fmt.Errorf("question %s has no image", r.QuestionID)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image for question %s: %w", r.QuestionID, err)
	}
	return data, nil
}

// HasImage reports whether the record carries or references an image.
func (r *Record) HasImage() bool {
	return len(r.Image.Bytes) > 0 || r.ImagePath != "" || r.Image.Path != ""
}
