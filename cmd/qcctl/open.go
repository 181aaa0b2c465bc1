package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/OsbornePro/quickcopy/internal/credential"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var openFlags struct {
	file     string
	raw      bool
	typ      string
	title    string
	subtitle string
	url      string
	username string
	secret   string
	env      string
	keyType  string
	dbEngine string
	dbHost   string
	dbPort   string
	dbName   string
	content  string
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Hand a credential to quickcopyd and open the quick copy window",
	Long: `Hand a credential to quickcopyd and open the quick copy window.

The credential is read from --file ("-" for stdin) or built from flags.
When the secret is not given on the command line it is prompted for.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := buildPayload(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if err := qc.Open(cmd.Context(), payload); err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), map[string]any{"ok": true}, "opened")
	},
}

func init() {
	f := openCmd.Flags()
	f.StringVarP(&openFlags.file, "file", "f", "", "read the credential JSON from a file (- for stdin)")
	f.BoolVar(&openFlags.raw, "raw", false, "send --file contents without validating them")
	f.StringVarP(&openFlags.typ, "type", "t", "login", "credential type (login, api, database, note)")
	f.StringVar(&openFlags.title, "title", "", "title shown in the window")
	f.StringVar(&openFlags.subtitle, "subtitle", "", "subtitle shown under the title")
	f.StringVar(&openFlags.url, "url", "", "website (login)")
	f.StringVarP(&openFlags.username, "username", "u", "", "username (login, database)")
	f.StringVar(&openFlags.secret, "secret", "", "password or secret key; prompted when empty")
	f.StringVar(&openFlags.env, "env", "", "environment (api)")
	f.StringVar(&openFlags.keyType, "key-type", "", "key type (api)")
	f.StringVar(&openFlags.dbEngine, "db-engine", "", "engine (database)")
	f.StringVar(&openFlags.dbHost, "db-host", "", "host (database)")
	f.StringVar(&openFlags.dbPort, "db-port", "", "port (database)")
	f.StringVar(&openFlags.dbName, "db-name", "", "database name (database)")
	f.StringVar(&openFlags.content, "content", "", "note content (note)")
}

func buildPayload(stdin io.Reader, prompt io.Writer) (string, error) {
	if openFlags.file != "" {
		return readPayloadFile(openFlags.file, stdin)
	}

	c := &credential.Credential{
		Type:     credential.Type(openFlags.typ),
		Title:    openFlags.title,
		Subtitle: openFlags.subtitle,
	}
	if err := c.Validate(); err != nil {
		return "", err
	}

	secret := openFlags.secret
	if secret == "" && c.Type != credential.TypeNote {
		var err error
		secret, err = promptSecret(stdin, prompt, "Secret: ")
		if err != nil {
			return "", err
		}
	}

	switch c.Type {
	case credential.TypeLogin:
		c.URL, c.Username, c.Password = openFlags.url, openFlags.username, secret
	case credential.TypeAPI:
		c.Env, c.KeyType, c.Secret = openFlags.env, openFlags.keyType, secret
	case credential.TypeDatabase:
		c.DBEngine, c.DBHost, c.DBPort = openFlags.dbEngine, openFlags.dbHost, openFlags.dbPort
		c.DBName, c.DBUser, c.DBPass = openFlags.dbName, openFlags.username, secret
	case credential.TypeNote:
		c.Content = openFlags.content
	}
	return c.JSON()
}

func readPayloadFile(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading credential: %w", err)
	}
	if openFlags.raw {
		return string(data), nil
	}
	c, err := credential.Parse(data)
	if err != nil {
		return "", err
	}
	return c.JSON()
}

// promptSecret reads a line without echo when stdin is a terminal.
func promptSecret(stdin io.Reader, prompt io.Writer, label string) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading secret: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
