package domain

import (
	"fmt"
	"strings"
)

// Model is a user-facing model name. ID maps it to the upstream identifier.
type Model string

const (
	ModelMistral7BInstructFree Model = "mistral-7b-instruct-free"
	ModelLlama323BInstructFree Model = "llama-3.2-3b-instruct-free"
	ModelGemini20FlashExpFree  Model = "gemini-2.0-flash-exp-free"

	DefaultModel = ModelMistral7BInstructFree
)

//nolint:gochecknoglobals // Immutable lookup table.
var modelIDs = map[Model]string{
	ModelMistral7BInstructFree: "mistralai/mistral-7b-instruct:free",
	ModelLlama323BInstructFree: "meta-llama/llama-3.2-3b-instruct:free",
	ModelGemini20FlashExpFree:  "google/gemini-2.0-flash-exp:free",
}

// Models returns every supported model, default first.
func Models() []Model {
	return []Model{
		ModelMistral7BInstructFree,
		ModelLlama323BInstructFree,
		ModelGemini20FlashExpFree,
	}
}

func ParseModel(s string) (Model, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultModel, nil
	}

	m := Model(s)
	if !m.Valid() {
		return "", fmt.Errorf("unsupported model (name = %s)", s)
	}

	return m, nil
}

func (m Model) Valid() bool {
	_, ok := modelIDs[m]
	return ok
}

// ID returns the identifier sent to the generation endpoint.
func (m Model) ID() string {
	return modelIDs[m]
}

func (m Model) String() string {
	return string(m)
}
