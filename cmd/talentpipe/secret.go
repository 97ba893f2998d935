package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"talent-pipeline/internal/secrets"
)

// secret stores or removes the portal password in the OS keychain. The
// password is read from stdin so it never lands in shell history.
func (a *app) secret(args []string, in io.Reader, stderr io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: talentpipe secret <set|delete>")
	}
	account := secrets.PortalKeyringAccount(a.cfg())
	if account == "" {
		return errors.New("scrape.username is not configured")
	}

	switch args[0] {
	case "set":
		fmt.Fprint(stderr, "portal password: ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return secrets.SetPortalPassword(account, strings.TrimRight(line, "\r\n"))
	case "delete":
		return secrets.DeletePortalPassword(account)
	default:
		return fmt.Errorf("unknown secret action %q", args[0])
	}
}
