package compaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// Metric is a dimensionless, non-negative cost. Only the ordering of two
// metrics produced by the same Estimator is meaningful.
type Metric int64

// ErrEstimatorAnomaly indicates a value the estimator cannot measure, such as a
// cyclic structure or a NaN. Results are plain data, so this is always an
// upstream defect.
var ErrEstimatorAnomaly = errors.New("estimator anomaly")

// EstimateError reports an unmeasurable value.
type EstimateError struct {
	Type string // Go type of the offending value
	Err  error
}

func (e *EstimateError) Error() string {
	return fmt.Sprintf("cannot estimate %s: %v", e.Type, e.Err)
}

func (e *EstimateError) Unwrap() []error {
	return []error{ErrEstimatorAnomaly, e.Err}
}

// Estimator measures raw text and structured values on a common scale.
//
// EstimateText is total. EstimateValue fails only with an error wrapping
// [ErrEstimatorAnomaly].
type Estimator interface {
	EstimateText(text string) Metric
	EstimateValue(v any) (Metric, error)
}

// charsPerToken approximates BPE tokenizers on ASCII source and CLI output.
const charsPerToken = 4

// TokenEstimator approximates LLM token counts.
//
// Text costs one token per four ASCII bytes (rounded up) plus one token per
// non-ASCII rune. A structured value is serialized to JSON and only its
// scalar leaves are charged: object keys and punctuation are fixed by the
// tool's declared output schema, which the client holds regardless of the
// invocation. The leaf texts (string contents and the literals of numbers and
// booleans) are pooled and charged as one text. Nulls and empty containers
// cost nothing.
type TokenEstimator struct{}

// EstimateText implements Estimator.
func (TokenEstimator) EstimateText(text string) Metric {
	var c charCount
	c.add(text)
	return c.tokens()
}

// EstimateValue implements Estimator.
func (TokenEstimator) EstimateValue(v any) (Metric, error) {
	c, err := countLeaves(v)
	if err != nil {
		return 0, err
	}
	return c.tokens(), nil
}

// charCount accumulates text for a single rounding.
type charCount struct {
	ascii int
	wide  int
	bytes int
}

func (c *charCount) add(s string) {
	c.bytes += len(s)
	for i := 0; i < len(s); {
		if s[i] < utf8.RuneSelf {
			c.ascii++
			i++
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		c.wide++
		i += size
	}
}

func (c charCount) tokens() Metric {
	return Metric((c.ascii+charsPerToken-1)/charsPerToken + c.wide)
}

func countLeaves(v any) (charCount, error) {
	data, err := marshalForEstimate(v)
	if err != nil {
		return charCount{}, err
	}
	var c charCount
	walkLeaves(gjson.ParseBytes(data), &c)
	return c, nil
}

func walkLeaves(r gjson.Result, c *charCount) {
	switch r.Type {
	case gjson.Null:
		return
	case gjson.True, gjson.False, gjson.Number:
		c.add(r.Raw)
		return
	case gjson.String:
		c.add(r.Str)
		return
	}
	if r.IsObject() || r.IsArray() {
		r.ForEach(func(_, value gjson.Result) bool {
			walkLeaves(value, c)
			return true
		})
	}
}

// ByteEstimator charges raw text by its byte length and structured values by
// the byte length of their scalar leaves, on the same terms as
// [TokenEstimator].
type ByteEstimator struct{}

// EstimateText implements Estimator.
func (ByteEstimator) EstimateText(text string) Metric {
	return Metric(len(text))
}

// EstimateValue implements Estimator.
func (ByteEstimator) EstimateValue(v any) (Metric, error) {
	c, err := countLeaves(v)
	if err != nil {
		return 0, err
	}
	return Metric(c.bytes), nil
}

// NewEstimator returns the estimator registered under name ("tokens" or
// "bytes"). An empty name selects tokens.
func NewEstimator(name string) (Estimator, error) {
	switch name {
	case "", "tokens":
		return TokenEstimator{}, nil
	case "bytes":
		return ByteEstimator{}, nil
	}
	return nil, fmt.Errorf("unknown estimator %q", name)
}

func marshalForEstimate(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &EstimateError{Type: fmt.Sprintf("%T", v), Err: err}
	}
	if !gjson.ValidBytes(data) {
		return nil, &EstimateError{Type: fmt.Sprintf("%T", v), Err: errors.New("encoding is not valid JSON")}
	}
	return data, nil
}
