package portage

import (
	"sort"
	"strings"
)

// Flags managed by profiles or USE_EXPAND that are pointless to
// shuffle when hunting for configuration-dependent breakage.
var ignoreFlagPrefixes = []string{
	"elibc_",
	"eglibc_",
	"video_cards_",
	"linguas_",
	"l10n_",
	"kernel_",
	"abi_",
	"python_target_",
	"python_targets_",
	"python_single_target_",
	"ruby_targets_",
	"cpu_flags_",
}

var ignoreFlags = map[string]struct{}{
	"debug":     {},
	"doc":       {},
	"test":      {},
	"selinux":   {},
	"split-usr": {},
	"pic":       {},
}

// StripUseDefaults removes the '+'/'-' default markers IUSE entries
// may carry.
func StripUseDefaults(flags []string) []string {
	stripped := make([]string, 0, len(flags))
	for _, flag := range flags {
		if len(flag) > 0 && (flag[0] == '+' || flag[0] == '-') {
			flag = flag[1:]
		}
		stripped = append(stripped, flag)
	}
	return stripped
}

// FilterTestableFlags drops flags that most likely should not be
// toggled while testing: expand-managed flags and a short list of
// globally special ones.
func FilterTestableFlags(flags []string) []string {
	kept := make([]string, 0, len(flags))
	for _, flag := range flags {
		if _, skip := ignoreFlags[flag]; skip {
			continue
		}
		if hasAnyPrefix(flag, ignoreFlagPrefixes) {
			continue
		}
		kept = append(kept, flag)
	}
	return kept
}

// PrepareOptionSet turns a raw IUSE list into the ordered option set
// used for combination sampling: defaults stripped, managed flags
// filtered out, remainder sorted.
func PrepareOptionSet(iuse []string) []string {
	flags := FilterTestableFlags(StripUseDefaults(iuse))
	sort.Strings(flags)
	return flags
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
