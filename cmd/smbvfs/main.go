package main

import "github.com/javi11/smbvfs/cmd/smbvfs/cmd"

func main() {
	cmd.Execute()
}
