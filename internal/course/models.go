package course

type QuestionType string

const (
	QuestionSingle QuestionType = "single_choice"
	QuestionMulti  QuestionType = "multiple_choice"
	QuestionCode   QuestionType = "code" // placeholder, never scored
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingle, QuestionMulti, QuestionCode:
		return true
	}
	return false
}

const (
	// MinTimeLimitSeconds is both the authoring minimum and the floor applied at read time.
	MinTimeLimitSeconds = 120
	DefaultMaxScore     = 100
)

type Course struct {
	ID          int64    `db:"id" json:"id"`
	AuthorID    *string  `db:"author_id" json:"author_id"`
	AuthorName  string   `db:"author_name" json:"author_name"`
	Title       string   `db:"title" json:"title"`
	Slug        string   `db:"slug" json:"slug"`
	Description string   `db:"description" json:"description"`
	Modules     []Module `db:"-" json:"modules,omitempty"`
}

type Module struct {
	ID       int64   `db:"id" json:"id"`
	CourseID int64   `db:"course_id" json:"course_id"`
	Title    string  `db:"title" json:"title"`
	Order    int     `db:"sort_order" json:"order"`
	Topics   []Topic `db:"-" json:"topics,omitempty"`
}

type Topic struct {
	ID               int64      `db:"id" json:"id"`
	ModuleID         int64      `db:"module_id" json:"module_id"`
	ModuleTitle      string     `db:"module_title" json:"module_title"`
	CourseID         int64      `db:"course_id" json:"course_id"`
	CourseTitle      string     `db:"course_title" json:"course_title"`
	Title            string     `db:"title" json:"title"`
	Content          string     `db:"content" json:"content"`
	Order            int        `db:"sort_order" json:"order"`
	IsTimedTest      bool       `db:"is_timed_test" json:"is_timed_test"`
	TimeLimitSeconds *int       `db:"time_limit_seconds" json:"time_limit_seconds"`
	Questions        []Question `db:"-" json:"questions,omitempty"`
}

type Question struct {
	ID       int64        `db:"id" json:"id"`
	TopicID  int64        `db:"topic_id" json:"topic_id"`
	Text     string       `db:"text" json:"text"`
	Order    int          `db:"sort_order" json:"order"`
	Type     QuestionType `db:"question_type" json:"question_type"`
	MaxScore int          `db:"max_score" json:"max_score"`
	Options  []Option     `db:"-" json:"options"`
}

// CorrectOptionIDs returns the ids of options flagged correct, in option order.
func (q Question) CorrectOptionIDs() []int64 {
	var out []int64
	for _, o := range q.Options {
		if o.IsCorrect {
			out = append(out, o.ID)
		}
	}
	return out
}

// HasOption reports whether id is one of q's options.
func (q Question) HasOption(id int64) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

type Option struct {
	ID         int64  `db:"id" json:"id"`
	QuestionID int64  `db:"question_id" json:"question_id"`
	Text       string `db:"text" json:"text"`
	IsCorrect  bool   `db:"is_correct" json:"is_correct"`
}

// ---- authoring inputs ----

type OptionInput struct {
	ID        *int64 `json:"id,omitempty"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionInput struct {
	Text     string        `json:"text"`
	Order    int           `json:"order"`
	Type     QuestionType  `json:"question_type"`
	MaxScore *int          `json:"max_score,omitempty"`
	Options  []OptionInput `json:"options"`
}

type TopicInput struct {
	Title            string          `json:"title"`
	Content          string          `json:"content"`
	Order            int             `json:"order"`
	IsTimedTest      bool            `json:"is_timed_test"`
	TimeLimitSeconds *int            `json:"time_limit_seconds,omitempty"`
	Questions        []QuestionInput `json:"questions"`
}

type ModuleInput struct {
	Title  string       `json:"title"`
	Order  int          `json:"order"`
	Topics []TopicInput `json:"topics"`
}

type CourseInput struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Modules     []ModuleInput `json:"modules"`
}

type CoursePatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

type ModulePatch struct {
	Title *string `json:"title,omitempty"`
	Order *int    `json:"order,omitempty"`
}

type TopicPatch struct {
	Title            *string `json:"title,omitempty"`
	Content          *string `json:"content,omitempty"`
	Order            *int    `json:"order,omitempty"`
	IsTimedTest      *bool   `json:"is_timed_test,omitempty"`
	TimeLimitSeconds *int    `json:"time_limit_seconds,omitempty"`
}

// QuestionPatch with non-nil Options syncs the option set by id:
// known ids are updated, the rest inserted, and missing ones deleted.
type QuestionPatch struct {
	Text     *string        `json:"text,omitempty"`
	Order    *int           `json:"order,omitempty"`
	Type     *QuestionType  `json:"question_type,omitempty"`
	MaxScore *int           `json:"max_score,omitempty"`
	Options  *[]OptionInput `json:"options,omitempty"`
}
