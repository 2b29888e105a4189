package course

import (
	"fmt"
	"strings"
)

const maxOptionText = 255

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validateTitle(what, title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("%s title is required", what)
	}
	if len(title) > 200 {
		return invalid("%s title is longer than 200 characters", what)
	}
	return nil
}

func validateTimeLimit(v *int) error {
	if v != nil && *v < MinTimeLimitSeconds {
		return invalid("time limit must be at least %d seconds", MinTimeLimitSeconds)
	}
	return nil
}

func validateMaxScore(v *int) error {
	if v != nil && (*v < 0 || *v > 100) {
		return invalid("max_score must be between 0 and 100")
	}
	return nil
}

func validateOptions(opts []OptionInput) error {
	for _, o := range opts {
		if strings.TrimSpace(o.Text) == "" {
			return invalid("option text is required")
		}
		if len(o.Text) > maxOptionText {
			return invalid("option text is longer than %d characters", maxOptionText)
		}
	}
	return nil
}

func (in *QuestionInput) normalize() error {
	if strings.TrimSpace(in.Text) == "" {
		return invalid("question text is required")
	}
	if in.Type == "" {
		in.Type = QuestionSingle
	}
	if !in.Type.Valid() {
		return invalid("unknown question type %q", in.Type)
	}
	if err := validateMaxScore(in.MaxScore); err != nil {
		return err
	}
	return validateOptions(in.Options)
}

func (in *TopicInput) normalize() error {
	if err := validateTitle("topic", in.Title); err != nil {
		return err
	}
	if err := validateTimeLimit(in.TimeLimitSeconds); err != nil {
		return err
	}
	for i := range in.Questions {
		if err := in.Questions[i].normalize(); err != nil {
			return err
		}
	}
	return nil
}

func (in *ModuleInput) normalize() error {
	if err := validateTitle("module", in.Title); err != nil {
		return err
	}
	for i := range in.Topics {
		if err := in.Topics[i].normalize(); err != nil {
			return err
		}
	}
	return nil
}

func (in *CourseInput) normalize() error {
	if err := validateTitle("course", in.Title); err != nil {
		return err
	}
	for i := range in.Modules {
		if err := in.Modules[i].normalize(); err != nil {
			return err
		}
	}
	return nil
}

func maxScoreOrDefault(v *int) int {
	if v == nil {
		return DefaultMaxScore
	}
	return *v
}
