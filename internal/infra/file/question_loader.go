package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	"quiz-widget/internal/domain"
)

var extensions = []string{".json", ".yaml", ".yml"}

// QuestionLoader reads question sets from <dir>/<set>.json, .yaml or .yml.
type QuestionLoader struct {
	dir string
}

func NewQuestionLoader(dir string) *QuestionLoader {
	return &QuestionLoader{dir: dir}
}

func (l *QuestionLoader) LoadQuestions(_ context.Context, set string) ([]domain.Question, error) {
	for _, ext := range extensions {
		path := filepath.Join(l.dir, set+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read questions: %w", err)
		}
		questions, err := ParseQuestions(data, ext)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return questions, nil
	}
	return nil, fmt.Errorf("%w: %s in %s", domain.ErrQuestionSetNotFound, set, l.dir)
}

// ParseQuestions decodes a question document. Both the {"questions": [...]}
// document and a bare list are accepted.
func ParseQuestions(data []byte, ext string) ([]domain.Question, error) {
	if ext == ".json" {
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var questions []domain.Question
			err := json.Unmarshal(trimmed, &questions)
			return questions, err
		}
		var doc domain.QuestionSet
		err := json.Unmarshal(trimmed, &doc)
		return doc.Questions, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var questions []domain.Question
		err := node.Content[0].Decode(&questions)
		return questions, err
	}
	var doc domain.QuestionSet
	if err := node.Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Questions, nil
}
