package store

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"postboard/internal/model"

	"github.com/samber/lo"
)

const (
	DefaultTitleMax   = 1000
	DefaultContentMax = 1000
)

// Limits bounds the length of post fields, counted in characters.
type Limits struct {
	TitleMax   int
	ContentMax int
}

func DefaultLimits() Limits {
	return Limits{TitleMax: DefaultTitleMax, ContentMax: DefaultContentMax}
}

// normalized replaces unset or non-positive bounds with the defaults.
func (l Limits) normalized() Limits {
	if l.TitleMax <= 0 {
		l.TitleMax = DefaultTitleMax
	}
	if l.ContentMax <= 0 {
		l.ContentMax = DefaultContentMax
	}
	return l
}

func (l Limits) checkField(name, value string, max int) error {
	if value == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidArgument, name)
	}
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%w: %s too long (max %d characters)", ErrInvalidArgument, name, max)
	}
	return nil
}

func (l Limits) validateNew(title, content string) error {
	if title == "" || content == "" {
		return fmt.Errorf("%w: missing title or content", ErrInvalidArgument)
	}
	if err := l.checkField("title", title, l.TitleMax); err != nil {
		return err
	}
	return l.checkField("content", content, l.ContentMax)
}

func (l Limits) validatePatch(patch model.PostPatch) error {
	if patch.Empty() {
		return fmt.Errorf("%w: at least one of title or content must be provided", ErrInvalidArgument)
	}
	if patch.Title != nil {
		if err := l.checkField("title", *patch.Title, l.TitleMax); err != nil {
			return err
		}
	}
	if patch.Content != nil {
		if err := l.checkField("content", *patch.Content, l.ContentMax); err != nil {
			return err
		}
	}
	return nil
}

var (
	sortFields = []SortField{SortTitle, SortContent}
	directions = []Direction{Asc, Desc}
)

// resolve checks the options and fills in the default direction.
func (o ListOptions) resolve() (ListOptions, error) {
	if o.Sort != SortNone && !lo.Contains(sortFields, o.Sort) {
		return o, fmt.Errorf("%w: invalid sort field %q, must be one of [%s]",
			ErrInvalidArgument, string(o.Sort), joinValues(sortFields))
	}
	if o.Direction == "" {
		o.Direction = Asc
	}
	d, err := ParseDirection(string(o.Direction))
	if err != nil {
		return o, err
	}
	o.Direction = d
	return o, nil
}

// ParseDirection accepts only "asc" or "desc". Unlike ListOptions it does not
// treat an empty value as the default.
func ParseDirection(raw string) (Direction, error) {
	d := Direction(raw)
	if !lo.Contains(directions, d) {
		return "", fmt.Errorf("%w: invalid direction %q, must be one of [%s]",
			ErrInvalidArgument, raw, joinValues(directions))
	}
	return d, nil
}

func joinValues[T ~string](set []T) string {
	return strings.Join(lo.Map(set, func(v T, _ int) string { return string(v) }), ", ")
}
