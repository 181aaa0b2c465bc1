// Package credential decodes the payload shown in the quick copy window.
// The hand-off itself treats payloads as opaque strings; only the view
// parses them.
package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Type string

const (
	TypeLogin    Type = "login"
	TypeAPI      Type = "api"
	TypeDatabase Type = "database"
	TypeNote     Type = "note"
)

var (
	ErrUnknownType = errors.New("unknown credential type")
	ErrMissingType = errors.New("credential type missing")
)

// Credential is the union of all credential kinds; only the fields of Type
// are meaningful.
type Credential struct {
	ID       int64  `json:"id"`
	Type     Type   `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Date     string `json:"date"`

	// login
	URL      string `json:"url,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// api
	Env     string `json:"env,omitempty"`
	KeyType string `json:"keyType,omitempty"`
	Secret  string `json:"secret,omitempty"`

	// database
	DBEngine string `json:"dbEngine,omitempty"`
	DBHost   string `json:"dbHost,omitempty"`
	DBPort   string `json:"dbPort,omitempty"`
	DBName   string `json:"dbName,omitempty"`
	DBUser   string `json:"dbUser,omitempty"`
	DBPass   string `json:"dbPass,omitempty"`

	// note
	Content string `json:"content,omitempty"`
}

// Parse decodes a serialized credential.
func Parse(data []byte) (*Credential, error) {
	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding credential: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Credential) Validate() error {
	switch c.Type {
	case TypeLogin, TypeAPI, TypeDatabase, TypeNote:
		return nil
	case "":
		return ErrMissingType
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, c.Type)
	}
}

// JSON serializes the credential the way the main window sends it.
func (c *Credential) JSON() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Field is one copyable line of the quick copy window.
type Field struct {
	Key    string
	Label  string
	Value  string
	Secret bool
}

// Fields lists what the quick copy window shows for c, in display order.
func (c *Credential) Fields() []Field {
	var fs []Field
	switch c.Type {
	case TypeLogin:
		if c.URL != "" {
			fs = append(fs, Field{Key: "url", Label: "URL", Value: c.URL})
		}
		fs = append(fs,
			Field{Key: "username", Label: "Username", Value: c.Username},
			Field{Key: "password", Label: "Password", Value: c.Password, Secret: true},
		)
	case TypeAPI:
		fs = append(fs,
			Field{Key: "env", Label: "Environment", Value: c.Env},
			Field{Key: "keyType", Label: "Key Type", Value: c.KeyType},
			Field{Key: "secret", Label: "Secret", Value: c.Secret, Secret: true},
		)
	case TypeDatabase:
		fs = append(fs,
			Field{Key: "dbEngine", Label: "Engine", Value: c.DBEngine},
			Field{Key: "dbHost", Label: "Host", Value: c.DBHost},
			Field{Key: "dbName", Label: "Database", Value: c.DBName},
			Field{Key: "dbUser", Label: "Username", Value: c.DBUser},
			Field{Key: "dbPass", Label: "Password", Value: c.DBPass, Secret: true},
			Field{Key: "connection", Label: "Connection String", Value: c.ConnectionString(), Secret: true},
		)
	case TypeNote:
		fs = append(fs, Field{Key: "content", Label: "Content", Value: c.Content})
	}
	return fs
}

// Display renders a field value for the window, masking secrets unless
// reveal is set. Database hosts are shown with their port.
func (c *Credential) Display(f Field, reveal bool) string {
	switch {
	case f.Secret && !reveal:
		if c.Type == TypeAPI {
			return strings.Repeat("•", 20)
		}
		return Mask(f.Value)
	case f.Key == "url":
		return strings.TrimPrefix(strings.TrimPrefix(f.Value, "https://"), "http://")
	case f.Key == "dbHost" && c.DBPort != "":
		return f.Value + ":" + c.DBPort
	}
	return f.Value
}

// Mask replaces every rune of s with a bullet.
func Mask(s string) string {
	return strings.Repeat("•", len([]rune(s)))
}

var protocols = map[string]string{
	"PostgreSQL": "postgres",
	"MySQL":      "mysql",
	"MongoDB":    "mongodb",
	"Redis":      "redis",
	"MariaDB":    "mysql",
}

// Protocol returns the URL scheme for a database engine ("db" if unknown).
func Protocol(engine string) string {
	if p, ok := protocols[engine]; ok {
		return p
	}
	return "db"
}

// ConnectionString builds a URL for a database credential.
func (c *Credential) ConnectionString() string {
	if c.Type != TypeDatabase {
		return ""
	}
	user := ""
	if c.DBUser != "" {
		user = c.DBUser + ":" + c.DBPass + "@"
	}
	db := ""
	if c.DBName != "" {
		db = "/" + c.DBName
	}
	return Protocol(c.DBEngine) + "://" + user + c.DBHost + ":" + c.DBPort + db
}
