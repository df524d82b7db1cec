package form

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Widget layouts of the temporal kinds. Parsing also accepts RFC 3339 so
// machine clients can post ISO timestamps.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DatetimeLayout = "2006-01-02 15:04:05"
)

type temporalFormat struct {
	layout  string
	accept  []string
	message string
}

var (
	dateFormat = temporalFormat{
		layout:  DateLayout,
		accept:  []string{DateLayout, time.RFC3339},
		message: "The entered value is not a valid date.",
	}
	timeFormat = temporalFormat{
		layout:  TimeLayout,
		accept:  []string{TimeLayout, "15:04"},
		message: "The entered value is not a valid time.",
	}
	datetimeFormat = temporalFormat{
		layout:  DatetimeLayout,
		accept:  []string{DatetimeLayout, "2006-01-02T15:04:05", "2006-01-02 15:04", time.RFC3339},
		message: "The entered value is not a valid date and time.",
	}
)

// TimeConverter formats date, time and datetime fields.
type TimeConverter struct {
	field  *schema.Field
	format temporalFormat
}

func newTimeConverter(field *schema.Field, format temporalFormat) *TimeConverter {
	return &TimeConverter{field: field, format: format}
}

func (c *TimeConverter) ToWidgetValue(value any) (any, error) {
	if c.field.IsMissing(value) {
		return "", nil
	}
	t, ok := value.(time.Time)
	if !ok {
		return nil, fmt.Errorf("form: field %q holds %T, not a time", c.field.Name, value)
	}
	if t.IsZero() {
		return "", nil
	}
	return t.Format(c.format.layout), nil
}

func (c *TimeConverter) ToFieldValue(value any) (any, error) {
	text, ok := firstText(value)
	if !ok {
		return nil, schema.NewValueError(c.format.message, value, nil)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return c.field.MissingValue, nil
	}
	var (
		parsed time.Time
		err    error
	)
	for _, layout := range c.format.accept {
		if parsed, err = time.Parse(layout, text); err == nil {
			break
		}
	}
	if err != nil {
		return nil, schema.NewValueError(c.format.message, text, err)
	}
	parsed = parsed.UTC()
	if err := c.field.Validate(parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// TimedeltaConverter renders durations as "D day(s), H:MM:SS[.ffffff]".
// Days are floored, so negative durations keep a positive clock part.
type TimedeltaConverter struct {
	field *schema.Field
}

var timedeltaPattern = regexp.MustCompile(`^(?:(-?\d+) days?, )?(\d+):(\d{2}):(\d{2})(?:\.(\d{1,6}))?$`)

const day = 24 * time.Hour

// FormatTimedelta renders d in the widget form.
func FormatTimedelta(d time.Duration) string {
	micros := d.Microseconds()
	const microsPerDay = int64(day / time.Microsecond)
	days := micros / microsPerDay
	rest := micros % microsPerDay
	if rest < 0 {
		days--
		rest += microsPerDay
	}
	seconds := rest / 1e6
	fraction := rest % 1e6
	clock := fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
	if fraction != 0 {
		clock += fmt.Sprintf(".%06d", fraction)
	}
	switch days {
	case 0:
		return clock
	case 1, -1:
		return fmt.Sprintf("%d day, %s", days, clock)
	}
	return fmt.Sprintf("%d days, %s", days, clock)
}

// ParseTimedelta parses the widget form of a duration.
func ParseTimedelta(text string) (time.Duration, error) {
	match := timedeltaPattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return 0, fmt.Errorf("form: %q is not a duration", text)
	}
	var days int64
	if match[1] != "" {
		n, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return 0, err
		}
		days = n
	}
	hours, _ := strconv.ParseInt(match[2], 10, 64)
	minutes, _ := strconv.ParseInt(match[3], 10, 64)
	seconds, _ := strconv.ParseInt(match[4], 10, 64)
	if minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("form: %q has an out of range clock", text)
	}
	var micros int64
	if match[5] != "" {
		fraction := match[5] + strings.Repeat("0", 6-len(match[5]))
		micros, _ = strconv.ParseInt(fraction, 10, 64)
	}
	total := time.Duration(days)*day +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(micros)*time.Microsecond
	return total, nil
}

func (c *TimedeltaConverter) ToWidgetValue(value any) (any, error) {
	if c.field.IsMissing(value) {
		return "", nil
	}
	d, ok := value.(time.Duration)
	if !ok {
		return nil, fmt.Errorf("form: field %q holds %T, not a duration", c.field.Name, value)
	}
	return FormatTimedelta(d), nil
}

func (c *TimedeltaConverter) ToFieldValue(value any) (any, error) {
	text, ok := firstText(value)
	if !ok {
		return nil, schema.NewValueError("The entered value is not a valid duration.", value, nil)
	}
	if strings.TrimSpace(text) == "" {
		return c.field.MissingValue, nil
	}
	d, err := ParseTimedelta(text)
	if err != nil {
		return nil, schema.NewValueError("The entered value is not a valid duration.", text, err)
	}
	if err := c.field.Validate(d); err != nil {
		return nil, err
	}
	return d, nil
}
