package portage

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/fff7d1bc/pkg-testing-tools/pkg/logging"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// flagDescriptions reads per-flag descriptions from the package's
// metadata.xml in the gentoo repository. Best effort: any failure
// yields nil, the descriptions are informational only.
func (s *PortageqSource) flagDescriptions(cp string) map[string]string {
	logger := logging.GetLogger("portage.metadata")

	out, err := s.Run("portageq", "get_repo_path", "/", "gentoo")
	if err != nil {
		logger.Debug().Err(err).Msg("Could not resolve gentoo repo path, skipping flag descriptions")
		return nil
	}
	repoPath := strings.TrimSpace(out)
	if repoPath == "" {
		return nil
	}

	path := filepath.Join(repoPath, cp, "metadata.xml")

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("No readable metadata.xml, skipping flag descriptions")
		return nil
	}

	descriptions := make(map[string]string)
	for _, flag := range doc.FindElements("//use/flag") {
		name := flag.SelectAttrValue("name", "")
		if name == "" {
			continue
		}
		if desc := flattenElementText(flag); desc != "" {
			descriptions[name] = desc
		}
	}

	if len(descriptions) == 0 {
		return nil
	}
	return descriptions
}

// flattenElementText joins an element's text, including text of child
// elements such as <pkg>, into a single whitespace-normalized string.
func flattenElementText(el *etree.Element) string {
	var sb strings.Builder
	for _, child := range el.Child {
		switch node := child.(type) {
		case *etree.CharData:
			sb.WriteString(node.Data)
		case *etree.Element:
			sb.WriteString(flattenElementText(node))
		}
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(sb.String(), " "))
}
