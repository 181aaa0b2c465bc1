package main

import (
	"fmt"

	"github.com/OsbornePro/quickcopy/internal/token"
)

func loadToken() (string, error) {
	tok, err := token.Load(tokenOptions())
	if err != nil {
		return "", fmt.Errorf("loading API token (is quickcopyd initialised?): %w", err)
	}
	return tok, nil
}
