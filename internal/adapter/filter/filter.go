package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"folio/internal/domain"
)

var (
	ratingValues = []string{"everyone", "teen", "mature"}
	statusValues = []string{"incomplete", "complete", "hiatus", "cancelled"}
	orderValues  = []string{"relevancy", "words", "likes", "dislikes", "wilson"}
)

// Compile turns a raw search string into a structured filter. The input is
// scanned once left to right; at each position a directive match is attempted
// and everything that is not a directive accumulates as free text, which
// later runs against title and description. A directive may start mid-word,
// but anchored matching means `dislikes>=10` can never be read as a likes
// directive.
func Compile(input string) (*domain.StoryFilter, error) {
	f := &domain.StoryFilter{}
	var text strings.Builder

	i := 0
	for i < len(input) {
		n, err := matchDirective(input[i:], f)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			i += n
			continue
		}
		text.WriteByte(input[i])
		i++
	}

	f.Text = strings.TrimSpace(text.String())
	return f, nil
}

// matchDirective reports how many bytes of rest form a directive at its
// start, zero if none does. A recognized field and comparison operator commit
// to a directive, so a malformed literal after them is a SyntaxError rather
// than free text.
func matchDirective(rest string, f *domain.StoryFilter) (int, error) {
	switch {
	case strings.HasPrefix(rest, "author("):
		if arg, n, ok := parenArg(rest[7:]); ok {
			f.Authors = append(f.Authors, arg)
			return 7 + n, nil
		}
	case strings.HasPrefix(rest, "-#("):
		if arg, n, ok := parenArg(rest[3:]); ok {
			f.TagsNot = append(f.TagsNot, arg)
			return 3 + n, nil
		}
	case strings.HasPrefix(rest, "~#("):
		if arg, n, ok := parenArg(rest[3:]); ok {
			f.TagsAny = append(f.TagsAny, arg)
			return 3 + n, nil
		}
	case strings.HasPrefix(rest, "#("):
		if arg, n, ok := parenArg(rest[2:]); ok {
			f.Tags = append(f.Tags, arg)
			return 2 + n, nil
		}
	case strings.HasPrefix(rest, "words>"), strings.HasPrefix(rest, "words<"):
		return intDirective(rest, "words", &f.Words)
	case strings.HasPrefix(rest, "likes>"), strings.HasPrefix(rest, "likes<"):
		return intDirective(rest, "likes", &f.Likes)
	case strings.HasPrefix(rest, "dislikes>"), strings.HasPrefix(rest, "dislikes<"):
		return intDirective(rest, "dislikes", &f.Dislikes)
	case strings.HasPrefix(rest, "wilson>"), strings.HasPrefix(rest, "wilson<"):
		return wilsonDirective(rest, f)
	case strings.HasPrefix(rest, "rating:"):
		if value, n := enumValue(rest[7:], ratingValues); n > 0 {
			f.Ratings = append(f.Ratings, value)
			return 7 + n, nil
		}
	case strings.HasPrefix(rest, "status:"):
		if value, n := enumValue(rest[7:], statusValues); n > 0 {
			f.Statuses = append(f.Statuses, value)
			return 7 + n, nil
		}
	case strings.HasPrefix(rest, "order:"):
		if value, n := enumValue(rest[6:], orderValues); n > 0 {
			f.Order = orderFor(value)
			return 6 + n, nil
		}
	}
	return 0, nil
}

// parenArg reads a non-empty directive argument up to its closing paren,
// unescaping `\)` to a literal paren. The second return is the number of
// bytes consumed including the closing paren. An unclosed or empty argument
// is not a directive.
func parenArg(s string) (string, int, bool) {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if strings.HasPrefix(s[i:], `\)`) {
			out.WriteByte(')')
			i += 2
			continue
		}
		if s[i] == ')' {
			if out.Len() == 0 {
				return "", 0, false
			}
			return out.String(), i + 1, true
		}
		out.WriteByte(s[i])
		i++
	}
	return "", 0, false
}

func cmpOp(s string) string {
	switch {
	case strings.HasPrefix(s, ">="):
		return ">="
	case strings.HasPrefix(s, "<="):
		return "<="
	case strings.HasPrefix(s, ">"):
		return ">"
	default:
		return "<"
	}
}

func intDirective(rest, field string, rng **domain.IntRange) (int, error) {
	op := cmpOp(rest[len(field):])
	body := rest[len(field)+len(op):]

	j := 0
	for j < len(body) && body[j] >= '0' && body[j] <= '9' {
		j++
	}
	if j == 0 {
		return 0, &domain.SyntaxError{Directive: field + op, Detail: "expected an integer"}
	}
	value, err := strconv.ParseInt(body[:j], 10, 64)
	if err != nil {
		return 0, &domain.SyntaxError{Directive: field + op, Detail: fmt.Sprintf("bad integer %q", body[:j])}
	}

	if *rng == nil {
		*rng = &domain.IntRange{Min: 0, Max: math.MaxInt64}
	}
	applyIntOp(*rng, op, value)
	return len(field) + len(op) + j, nil
}

// applyIntOp tightens a half-open [Min, Max) interval so that repeated
// directives on the same field intersect. MaxInt64 cannot be incremented:
// `>` collapses the interval to empty and `<=` keeps the already-open
// upper end, instead of wrapping negative.
func applyIntOp(rng *domain.IntRange, op string, value int64) {
	switch op {
	case ">=":
		if value > rng.Min {
			rng.Min = value
		}
	case "<=":
		if value == math.MaxInt64 {
			return
		}
		if value+1 < rng.Max {
			rng.Max = value + 1
		}
	case ">":
		if value == math.MaxInt64 {
			rng.Min = value
			return
		}
		if value+1 > rng.Min {
			rng.Min = value + 1
		}
	case "<":
		if value < rng.Max {
			rng.Max = value
		}
	}
}

func wilsonDirective(rest string, f *domain.StoryFilter) (int, error) {
	op := cmpOp(rest[len("wilson"):])
	body := rest[len("wilson")+len(op):]

	j := 0
	for j < len(body) && (body[j] == '.' || (body[j] >= '0' && body[j] <= '9')) {
		j++
	}
	if j == 0 {
		return 0, &domain.SyntaxError{Directive: "wilson" + op, Detail: "expected a decimal"}
	}
	value, err := strconv.ParseFloat(body[:j], 64)
	if err != nil {
		return 0, &domain.SyntaxError{Directive: "wilson" + op, Detail: fmt.Sprintf("bad decimal %q", body[:j])}
	}

	if f.Wilson == nil {
		// Both ends start exclusive; a lone upper bound therefore still
		// excludes stories sitting at exactly zero.
		f.Wilson = &domain.FloatRange{Min: 0, Max: 1}
	}
	applyFloatOp(f.Wilson, op, value)
	return len("wilson") + len(op) + j, nil
}

// applyFloatOp tightens the wilson interval. Equal bounds resolve in favor
// of the exclusive comparison: `wilson>0.5 wilson>=0.5` keeps 0.5 exclusive
// because the second directive does not raise the bound, while the reverse
// order actively demotes the inclusive bound.
func applyFloatOp(rng *domain.FloatRange, op string, value float64) {
	switch op {
	case ">=":
		if value > rng.Min {
			rng.Min = value
			rng.MinInclusive = true
		}
	case "<=":
		if value < rng.Max {
			rng.Max = value
			rng.MaxInclusive = true
		}
	case ">":
		if value > rng.Min || (value == rng.Min && rng.MinInclusive) {
			rng.Min = value
			rng.MinInclusive = false
		}
	case "<":
		if value < rng.Max || (value == rng.Max && rng.MaxInclusive) {
			rng.Max = value
			rng.MaxInclusive = false
		}
	}
}

func enumValue(s string, values []string) (string, int) {
	for _, v := range values {
		if strings.HasPrefix(s, v) {
			return v, len(v)
		}
	}
	return "", 0
}

func orderFor(name string) domain.Order {
	switch name {
	case "words":
		return domain.OrderWords
	case "likes":
		return domain.OrderLikes
	case "dislikes":
		return domain.OrderDislikes
	case "wilson":
		return domain.OrderWilson
	default:
		return domain.OrderRelevancy
	}
}
