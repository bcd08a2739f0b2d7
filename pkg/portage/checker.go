package portage

import "strings"

// RequiredUseChecker adapts CheckRequiredUse to the sampler's
// constraint checker contract: the assignment is a list of signed
// tokens, "-flag" meaning off and "flag" meaning on.
type RequiredUseChecker struct{}

// Check reports whether the assignment satisfies the expression.
func (RequiredUseChecker) Check(expression string, assignment []string) (bool, error) {
	enabled := make(map[string]bool, len(assignment))
	for _, token := range assignment {
		if name, off := strings.CutPrefix(token, "-"); off {
			enabled[name] = false
		} else {
			enabled[token] = true
		}
	}
	return CheckRequiredUse(expression, enabled)
}
