package credential

import "strings"

const (
	rule     = "═══════════════════════════════════════"
	thinRule = "─────────────────────────────────────"
)

// FormatText renders the whole credential as a plain-text block for
// "copy all".
func (c *Credential) FormatText() string {
	lines := []string{
		rule,
		"  " + strings.ToUpper(c.Title),
		rule,
		"",
	}

	switch c.Type {
	case TypeLogin:
		lines = append(lines, "Type:       Login Credential", "")
		if c.URL != "" {
			lines = append(lines, "Website:    "+c.URL)
		}
		lines = append(lines,
			"Username:   "+c.Username,
			"Password:   "+c.Password,
		)
	case TypeAPI:
		lines = append(lines,
			"Type:       API Key",
			"",
			"Environment: "+c.Env,
			"Key Type:    "+c.KeyType,
			"",
			"Secret Key:",
			"  "+c.Secret,
		)
	case TypeDatabase:
		lines = append(lines,
			"Type:       Database Credential",
			"",
			"Engine:     "+c.DBEngine,
			"Host:       "+c.DBHost,
			"Port:       "+c.DBPort,
			"Database:   "+c.DBName,
			"Username:   "+c.DBUser,
			"Password:   "+c.DBPass,
			"",
			"Connection String:",
			"  "+c.textConnectionString(),
		)
	case TypeNote:
		lines = append(lines,
			"Type:       Secure Note",
			"",
			"Content:",
			thinRule,
			c.Content,
			thinRule,
		)
	}

	lines = append(lines, "", "Created:    "+c.Date, rule)
	return strings.Join(lines, "\n")
}

// textConnectionString is the always-complete form used in the text block;
// Redis URLs carry no database path.
func (c *Credential) textConnectionString() string {
	base := c.DBUser + ":" + c.DBPass + "@" + c.DBHost + ":" + c.DBPort
	switch c.DBEngine {
	case "PostgreSQL":
		return "postgresql://" + base + "/" + c.DBName
	case "MySQL", "MariaDB":
		return "mysql://" + base + "/" + c.DBName
	case "MongoDB":
		return "mongodb://" + base + "/" + c.DBName
	case "Redis":
		return "redis://" + base
	default:
		return strings.ToLower(c.DBEngine) + "://" + base + "/" + c.DBName
	}
}
