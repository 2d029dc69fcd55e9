package main

import (
	"fmt"
	"os"

	"github.com/vpn-cli/vpnctl/internal/cli"
	"github.com/vpn-cli/vpnctl/internal/util"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(util.ExitError)
	}
}
