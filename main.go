package main

import (
	"fmt"
	"os"

	"github.com/nstehr/vimy/vimy-zerg/cli"
)

const banner = `
██╗   ██╗██╗███╗   ███╗██╗   ██╗
██║   ██║██║████╗ ████║╚██╗ ██╔╝
██║   ██║██║██╔████╔██║ ╚████╔╝
╚██╗ ██╔╝██║██║╚██╔╝██║  ╚██╔╝
 ╚████╔╝ ██║██║ ╚═╝ ██║   ██║
  ╚═══╝  ╚═╝╚═╝     ╚═╝   ╚═╝

Zerg Build Order Resolution`

func main() {
	if len(os.Args) > 1 && os.Args[1] == "run" {
		fmt.Println(banner)
	}
	os.Exit(cli.Execute())
}
