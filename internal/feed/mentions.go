// internal/feed/mentions.go
// @username mention extraction

package feed

import "regexp"

// The leading group keeps emails and mid-word @ out: a mention must
// start the text or follow a non-alphanumeric character.
var mentionPattern = regexp.MustCompile(`(^|[^A-Za-z0-9])@([A-Za-z0-9]{3,30})\b`)

// ExtractMentions returns the usernames mentioned in content, in
// order of first appearance, without duplicates.
func ExtractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		name := m[2]
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
