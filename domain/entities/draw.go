package entities

import (
	"fmt"
	"sort"
	"time"
)

// DrawDateParts is the scheduled draw date decoded from a game number
type DrawDateParts struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseGameNumber decodes a YYYYMMDD game number into its draw date
func ParseGameNumber(gameNumber string) (DrawDateParts, error) {
	t, err := time.Parse("20060102", gameNumber)
	if err != nil {
		return DrawDateParts{}, &ValidationError{Field: "gameNumber", Message: fmt.Sprintf("%q is not a YYYYMMDD draw date", gameNumber)}
	}
	return DrawDateParts{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// At returns the instant at hour:minute on the draw day in loc
func (d DrawDateParts) At(hour, minute int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}

// IsSameDay returns true if t falls on the draw day (compared in t's location)
func (d DrawDateParts) IsSameDay(t time.Time) bool {
	y, m, day := t.Date()
	return y == d.Year && m == d.Month && day == d.Day
}

// Compact formats the draw date as YYYYMMDD
func (d DrawDateParts) Compact() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, int(d.Month), d.Day)
}

// DrawState is the settlement lifecycle state of a draw
type DrawState string

const (
	DrawStateOpen            DrawState = "open"
	DrawStateResultPublished DrawState = "result_published"
	DrawStateSettling        DrawState = "settling"
	DrawStateSettled         DrawState = "settled"
)

// CanBeginSettlement returns true if a settlement run may start from this state
func (s DrawState) CanBeginSettlement() bool {
	return s == DrawStateOpen || s == DrawStateResultPublished
}

// Draw tracks the lifecycle of one (game type, game number) pair
type Draw struct {
	GameType   GameType    `db:"game_type"`
	GameNumber string      `db:"game_number"`
	State      DrawState   `db:"state"`
	Result     *DrawResult `db:"result"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

// IsSettled returns true once settlement completed
func (d *Draw) IsSettled() bool {
	return d.State == DrawStateSettled
}

// ResultSet holds the winning numbers of one base play type
type ResultSet struct {
	Straight string   `json:"straight"`
	Rumble   []string `json:"rumble,omitempty"`
	Singles  []string `json:"singles,omitempty"`
	Total    string   `json:"total,omitempty"`
}

// DrawResult is the published outcome of a draw, keyed by base play type
type DrawResult struct {
	GameType    GameType               `json:"game_type"`
	GameNumber  string                 `json:"game_number"`
	Results     map[PlayType]ResultSet `json:"results"`
	PublishedAt time.Time              `json:"published_at"`
}

// Validate checks the shape of a result. offers reports whether a game type
// carries a base play type.
func (r *DrawResult) Validate(offers func(GameType, PlayType) bool) error {
	if r == nil {
		return &ValidationError{Field: "result", Message: "is required"}
	}
	if !r.GameType.IsValid() {
		return &ValidationError{Field: "gameType", Message: fmt.Sprintf("unknown game type %q", r.GameType)}
	}
	if _, err := ParseGameNumber(r.GameNumber); err != nil {
		return err
	}
	if len(r.Results) == 0 {
		return &ValidationError{Field: "results", Message: "at least one sub-result is required"}
	}

	for base, rs := range r.Results {
		field := fmt.Sprintf("results.%s", base)
		if base.Base() != base || !offers(r.GameType, base) {
			return &ValidationError{Field: field, Message: fmt.Sprintf("%s is not a base play type of %s", base, r.GameType)}
		}
		if rs.Straight != "" && !isDigits(rs.Straight, base.DigitLength()) {
			return &ValidationError{Field: field + ".straight", Message: fmt.Sprintf("must be %d digits", base.DigitLength())}
		}
		for _, n := range rs.Rumble {
			if !isDigits(n, base.DigitLength()) {
				return &ValidationError{Field: field + ".rumble", Message: fmt.Sprintf("%q must be %d digits", n, base.DigitLength())}
			}
		}
		for _, n := range rs.Singles {
			if !isDigits(n, 1) {
				return &ValidationError{Field: field + ".singles", Message: fmt.Sprintf("%q must be a single digit", n)}
			}
		}
		if rs.Total != "" && !isDigits(rs.Total, 1) {
			return &ValidationError{Field: field + ".total", Message: "must be a single digit"}
		}
	}
	return nil
}

func isDigits(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// RumbleSet returns the permutation set for a base play type. When the
// publication omits it, it is derived from the straight number.
func (r *DrawResult) RumbleSet(base PlayType) []string {
	rs, ok := r.Results[base]
	if !ok {
		return nil
	}
	if len(rs.Rumble) > 0 {
		return rs.Rumble
	}
	if rs.Straight == "" {
		return nil
	}
	return Permutations(rs.Straight)
}

// Missing returns the sub-results required by the given play types that the
// publication does not carry, as "<base>.<part>" labels
func (r *DrawResult) Missing(playTypes []PlayType) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, pt := range playTypes {
		rs := r.Results[pt.Base()]
		var part string
		switch pt.Variant() {
		case PlayVariantStraight:
			if rs.Straight == "" {
				part = "straight"
			}
		case PlayVariantSingle:
			if len(rs.Singles) == 0 {
				part = "singles"
			}
		case PlayVariantTotal:
			if rs.Total == "" {
				part = "total"
			}
		}
		if part == "" {
			continue
		}
		label := fmt.Sprintf("%s.%s", pt.Base(), part)
		if !seen[label] {
			seen[label] = true
			missing = append(missing, label)
		}
	}
	sort.Strings(missing)
	return missing
}

// SameNumbers returns true if both results carry identical winning numbers
func (r *DrawResult) SameNumbers(other *DrawResult) bool {
	if len(r.Results) != len(other.Results) {
		return false
	}
	for base, rs := range r.Results {
		o, ok := other.Results[base]
		if !ok || rs.Straight != o.Straight || rs.Total != o.Total {
			return false
		}
		if !sameStrings(rs.Singles, o.Singles) || !sameStrings(r.RumbleSet(base), other.RumbleSet(base)) {
			return false
		}
	}
	return true
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// Permutations returns the distinct orderings of the digits of number, sorted
func Permutations(number string) []string {
	digits := []byte(number)
	sort.Slice(digits, func(i, j int) bool { return digits[i] < digits[j] })

	var out []string
	for {
		out = append(out, string(digits))
		// next lexicographic permutation
		i := len(digits) - 2
		for i >= 0 && digits[i] >= digits[i+1] {
			i--
		}
		if i < 0 {
			return out
		}
		j := len(digits) - 1
		for digits[j] <= digits[i] {
			j--
		}
		digits[i], digits[j] = digits[j], digits[i]
		for l, r := i+1, len(digits)-1; l < r; l, r = l+1, r-1 {
			digits[l], digits[r] = digits[r], digits[l]
		}
	}
}
