package mail

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// variablePattern matches ${NAME} placeholders for environment substitution.
var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadDir parses every .txt template in the directory into messages.
// Templates are loaded in lexical order so runs are deterministic.
// An empty result is not an error; the caller decides what no templates mean.
func LoadDir(dir string) ([]*Message, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("scan templates in %s: %w", dir, err)
	}

	sort.Strings(paths)

	messages := make([]*Message, 0, len(paths))

	for _, path := range paths {
		m, err := ParseFile(path)
		if err != nil {
			return nil, err
		}

		messages = append(messages, m)
	}

	return messages, nil
}

// ParseFile reads one template: a To: line, a Subject: line, a blank line,
// then the free-text body. ${NAME} placeholders are substituted from the
// process environment; unresolved placeholders are left verbatim.
func ParseFile(path string) (*Message, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}

	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")

	var (
		to, subject string
		i           int
	)

	// To: line.
	for ; i < len(lines); i++ {
		if line := strings.TrimSpace(lines[i]); strings.HasPrefix(strings.ToLower(line), "to:") {
			to = strings.TrimSpace(line[len("to:"):])
			i++

			break
		}
	}

	// Subject: line.
	for ; i < len(lines); i++ {
		if line := strings.TrimSpace(lines[i]); strings.HasPrefix(strings.ToLower(line), "subject:") {
			subject = strings.TrimSpace(line[len("subject:"):])
			i++

			break
		}
	}

	// Blank separators before the body.
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}

	body := strings.TrimSpace(strings.Join(lines[i:], "\n"))

	if to == "" {
		return nil, fmt.Errorf("no To: field found in %s", path)
	}

	if subject == "" {
		return nil, fmt.Errorf("no Subject: field found in %s", path)
	}

	m, err := NewMessage(expand(to), expand(subject), expand(body))
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}

	return m, nil
}

// expand substitutes ${NAME} placeholders from the environment,
// leaving unset variables untouched.
func expand(s string) string {
	return variablePattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}

		return match
	})
}
