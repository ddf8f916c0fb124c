package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli"

	"github.com/valerio/go-skyboy/skyboy/memory"
)

func showInfo(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("no ROM path provided")
	}

	cart, err := memory.LoadCartridgeFile(c.Args().First())
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Title:     %s\n", cart.Title)
	fmt.Fprintf(w, "Color:     %t\n", cart.Color)
	fmt.Fprintf(w, "Type:      0x%02X\n", cart.Type)
	fmt.Fprintf(w, "ROM size:  %d KB\n", cart.ROMSize/1024)
	fmt.Fprintf(w, "RAM size:  %d KB\n", cart.RAMSize/1024)
	fmt.Fprintf(w, "Checksum:  %s\n", map[bool]string{true: "ok", false: "mismatch"}[cart.HeaderOK])
	return nil
}

// parseAddress accepts decimal or 0x-prefixed hex. An empty string or -1 disables.
func parseAddress(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-1" {
		return -1, nil
	}
	v, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if v < 0 || v > 0xFFFF {
		return 0, fmt.Errorf("address %q out of range", s)
	}
	return int(v), nil
}
