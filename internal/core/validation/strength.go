package validation

import "regexp"

// Strength is the password meter shown next to a registration password.
type Strength struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

// PasswordStrength scores password one point each for: at least 8
// characters, a lowercase letter, an uppercase letter, a digit and a symbol.
func PasswordStrength(password string) Strength {
	if password == "" {
		return Strength{}
	}

	score := 0
	if len([]rune(password)) >= 8 {
		score++
	}
	for _, re := range []*regexp.Regexp{lowerPattern, upperPattern, digitPattern, symbolPattern} {
		if re.MatchString(password) {
			score++
		}
	}

	switch {
	case score <= 2:
		return Strength{Score: score, Label: "Fraca"}
	case score == 3:
		return Strength{Score: score, Label: "Média"}
	default:
		return Strength{Score: score, Label: "Forte"}
	}
}
